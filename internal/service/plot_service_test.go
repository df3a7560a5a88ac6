package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/internal/cache"
	"github.com/atlasmap-sc/cellplot/render"
)

func testService(t *testing.T) *PlotService {
	t.Helper()

	obs := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	c, err := container.New(obs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.AddAssay("logcounts", []string{"G1", "G2"}, []float64{
		0, 1, 2, 3, 4, 5,
		5, 4, 3, 2, 1, 0,
	}); err != nil {
		t.Fatalf("AddAssay failed: %v", err)
	}
	if err := c.AddCategoricalAnnotation("cluster", []string{"A", "B", "A", "B", "C", "C"}); err != nil {
		t.Fatalf("AddCategoricalAnnotation failed: %v", err)
	}
	if err := c.AddEmbedding("umap", "UMAP", 2, []float64{
		0, 10,
		1, 11,
		2, 12,
		3, 13,
		4, 14,
		5, 15,
	}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}

	cacheManager, err := cache.NewManager(cache.Config{
		PlotCacheSizeMB: 8,
		PlotTTL:         time.Minute,
		TableCacheSize:  16,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { cacheManager.Close() })

	return NewPlotService(PlotServiceConfig{
		DatasetID: "test",
		Container: c,
		Cache:     cacheManager,
		Renderer:  render.NewScatter(render.Config{Width: 160, Height: 120}),
	})
}

func TestServiceMetadata(t *testing.T) {
	s := testService(t)
	md := s.Metadata()

	if md.NObs != 6 || md.Bulk {
		t.Errorf("unexpected metadata: %+v", md)
	}
	if md.DefaultAssay != "logcounts" {
		t.Errorf("default_assay = %q", md.DefaultAssay)
	}
	if len(md.Metadata) != 2 || md.Metadata[0].Name != "cluster" {
		t.Fatalf("unexpected metadata columns: %+v", md.Metadata)
	}
	if got := md.Metadata[0].Levels; len(got) != 3 || got[0] != "A" {
		t.Errorf("cluster levels = %v", got)
	}
	// No designated identity column: ident is a single-level constant.
	if md.Metadata[1].Name != "ident" || len(md.Metadata[1].Levels) != 1 {
		t.Errorf("unexpected ident column: %+v", md.Metadata[1])
	}
	if len(md.Summaries) == 0 {
		t.Error("summaries should list the builtin reductions")
	}
}

func TestEmbeddingPlotCached(t *testing.T) {
	s := testService(t)
	req := EmbeddingPlotRequest{Embedding: "umap", DimY: 1, Color: "cluster"}

	first, err := s.EmbeddingPlot(req)
	if err != nil {
		t.Fatalf("EmbeddingPlot failed: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("empty plot")
	}

	key := cache.PlotKey("test", "embedding", req.cacheParams())
	if _, ok := s.cache.GetPlot(key); !ok {
		t.Error("plot should be cached after first render")
	}

	second, err := s.EmbeddingPlot(req)
	if err != nil {
		t.Fatalf("cached EmbeddingPlot failed: %v", err)
	}
	if len(second) != len(first) {
		t.Error("cache hit should return the identical artifact")
	}
}

func TestEmbeddingDataPayload(t *testing.T) {
	s := testService(t)

	data, err := s.EmbeddingData(EmbeddingPlotRequest{
		Embedding: "umap",
		DimY:      1,
		Color:     "G1",
		SplitBy:   []string{"cluster"},
		Cells:     []string{"c1", "c2", "c3", "c4"},
	})
	if err != nil {
		t.Fatalf("EmbeddingData failed: %v", err)
	}

	var payload struct {
		Panels []PanelPayload `json:"panels"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Cluster C is filtered out by the cells restriction.
	if len(payload.Panels) != 2 {
		t.Fatalf("panel count = %d, want 2", len(payload.Panels))
	}
	a := payload.Panels[0]
	if a.Facet != "A" || len(a.Obs) != 2 {
		t.Errorf("unexpected first panel: %+v", a)
	}
	if len(a.Columns) != 1 || a.Columns[0].Name != "G1" {
		t.Errorf("unexpected columns: %+v", a.Columns)
	}
	if len(a.X) != 2 || a.X[0] != 0 || a.X[1] != 2 {
		t.Errorf("unexpected panel coordinates: %v", a.X)
	}
}

func TestBinPlotFiltered(t *testing.T) {
	s := testService(t)

	// The cells filter restricts aggregation but not grid geometry.
	data, err := s.BinPlot(BinPlotRequest{
		Embedding: "umap",
		DimY:      1,
		Bins:      4,
		Hex:       true,
		Var:       "G1",
		Cells:     []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("BinPlot failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty plot")
	}
}

func TestDotDataEntries(t *testing.T) {
	s := testService(t)

	data, err := s.DotData(DotRequest{
		Vars:    []string{"G1", "G2"},
		GroupBy: "cluster",
		Scale:   true,
	})
	if err != nil {
		t.Fatalf("DotData failed: %v", err)
	}

	var payload struct {
		Summary string `json:"summary"`
		Entries []struct {
			Group       string
			Var         string
			N           int
			PctPositive float64
		} `json:"entries"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Summary != "mean" {
		t.Errorf("summary = %q, want mean", payload.Summary)
	}
	if len(payload.Entries) != 6 {
		t.Fatalf("entries = %d, want 6", len(payload.Entries))
	}
	// Group A holds c1 (G1=0) and c3 (G1=2): one of two positive.
	if payload.Entries[0].Group != "A" || payload.Entries[0].PctPositive != 0.5 {
		t.Errorf("unexpected first entry: %+v", payload.Entries[0])
	}
}

func TestSummaryDataCategoricalTarget(t *testing.T) {
	s := testService(t)

	data, err := s.SummaryData(SummaryRequest{Var: "cluster", GroupBy: "cluster"})
	if err != nil {
		t.Fatalf("SummaryData failed: %v", err)
	}
	var payload struct {
		Items []struct {
			Group string
			Level string
			Share float64
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(payload.Items))
	}
	if payload.Items[0].Level != "A" || payload.Items[0].Share != 1 {
		t.Errorf("unexpected first item: %+v", payload.Items[0])
	}
}

func TestServiceErrors(t *testing.T) {
	s := testService(t)

	_, err := s.EmbeddingPlot(EmbeddingPlotRequest{Embedding: "nope"})
	var nfErr *container.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	_, err = s.Legend("G1")
	var tmErr *container.TypeMismatchError
	if !errors.As(err, &tmErr) {
		t.Errorf("expected TypeMismatchError for numeric legend, got %v", err)
	}

	_, err = s.DotData(DotRequest{Vars: []string{"G1"}, GroupBy: "cluster", Summary: "nope"})
	if err == nil {
		t.Error("expected error for unknown summary")
	}
}
