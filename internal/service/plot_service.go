// Package service provides business logic for the plot server.
package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/facet"
	"github.com/atlasmap-sc/cellplot/internal/cache"
	"github.com/atlasmap-sc/cellplot/pkg/palette"
	"github.com/atlasmap-sc/cellplot/plotdata"
	"github.com/atlasmap-sc/cellplot/render"
	"github.com/atlasmap-sc/cellplot/summarize"
)

// PlotServiceConfig contains plot service configuration.
type PlotServiceConfig struct {
	DatasetID string
	Container *container.Container
	Cache     *cache.Manager
	Renderer  render.Renderer
}

// PlotService serves plots and plot data for one dataset.
type PlotService struct {
	datasetID  string
	c          *container.Container
	cache      *cache.Manager
	renderer   render.Renderer
	reductions *summarize.Registry
}

// NewPlotService creates a new plot service.
func NewPlotService(cfg PlotServiceConfig) *PlotService {
	datasetID := cfg.DatasetID
	if datasetID == "" {
		datasetID = "default"
	}
	return &PlotService{
		datasetID:  datasetID,
		c:          cfg.Container,
		cache:      cfg.Cache,
		renderer:   cfg.Renderer,
		reductions: summarize.NewRegistry(),
	}
}

// Container exposes the underlying dataset.
func (s *PlotService) Container() *container.Container {
	return s.c
}

// Reductions exposes the reduction registry so callers can register
// custom summaries before serving.
func (s *PlotService) Reductions() *summarize.Registry {
	return s.reductions
}

// MetaColumnInfo describes one metadata column.
type MetaColumnInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

// Metadata is the dataset description returned by the metadata endpoint.
type Metadata struct {
	DatasetID        string           `json:"dataset_id"`
	NObs             int              `json:"n_obs"`
	Bulk             bool             `json:"bulk"`
	ObservationLabel string           `json:"observation_label"`
	Assays           []string         `json:"assays"`
	DefaultAssay     string           `json:"default_assay"`
	Metadata         []MetaColumnInfo `json:"metadata"`
	Embeddings       []string         `json:"embeddings"`
	NFeatures        int              `json:"n_features"`
	Summaries        []string         `json:"summaries"`
}

// Metadata describes the dataset.
func (s *PlotService) Metadata() Metadata {
	md := Metadata{
		DatasetID:        s.datasetID,
		NObs:             s.c.NObs(),
		Bulk:             s.c.IsBulk(),
		ObservationLabel: s.c.ObservationLabel(),
		Assays:           s.c.AssayNames(),
		Embeddings:       s.c.EmbeddingNames(),
		NFeatures:        len(s.c.FeatureNames()),
		Summaries:        s.reductions.Names(),
	}
	if assay, err := s.c.DefaultAssay(); err == nil {
		md.DefaultAssay = assay
	}
	for _, name := range s.c.MetadataNames() {
		a, err := s.c.Metadata(name)
		if err != nil {
			continue
		}
		info := MetaColumnInfo{Name: name, Kind: a.Kind.String()}
		if a.Kind == container.Categorical {
			col := plotdata.Column{Name: name, Kind: a.Kind, Levels: a.Values}
			info.Levels = col.UniqueLevels()
		}
		md.Metadata = append(md.Metadata, info)
	}
	return md
}

// Features lists feature names across all assays.
func (s *PlotService) Features() []string {
	return s.c.FeatureNames()
}

// LegendItem binds one level to its palette color.
type LegendItem struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

// Legend resolves the color assignment for a categorical variable.
func (s *PlotService) Legend(variable string) ([]LegendItem, error) {
	col, err := plotdata.ExtractColumn(s.c, variable, plotdata.All(s.c), "")
	if err != nil {
		return nil, err
	}
	if col.Kind != container.Categorical {
		return nil, &container.TypeMismatchError{Name: variable, Got: col.Kind, Want: container.Categorical}
	}
	levels := col.UniqueLevels()
	assigned, err := palette.Assign(levels, palette.Options{})
	if err != nil {
		return nil, err
	}
	items := make([]LegendItem, len(levels))
	for i, lvl := range levels {
		items[i] = LegendItem{Level: lvl, Color: assigned[lvl]}
	}
	return items, nil
}

// EmbeddingPlotRequest parameterizes one embedding plot run.
type EmbeddingPlotRequest struct {
	Embedding  string
	DimX, DimY int
	Color      string
	Assay      string
	Cells      []string
	SplitBy    []string
	IncludeAll bool

	PointSize   float64
	Colormap    string
	RasterScale float64
	HideLegend  bool
}

func (r EmbeddingPlotRequest) cacheParams() map[string]string {
	return map[string]string{
		"embedding":    r.Embedding,
		"dims":         strconv.Itoa(r.DimX) + "," + strconv.Itoa(r.DimY),
		"color":        r.Color,
		"assay":        r.Assay,
		"cells":        strings.Join(r.Cells, ","),
		"split_by":     strings.Join(r.SplitBy, ","),
		"include_all":  strconv.FormatBool(r.IncludeAll),
		"point_size":   strconv.FormatFloat(r.PointSize, 'g', -1, 64),
		"colormap":     r.Colormap,
		"raster_scale": strconv.FormatFloat(r.RasterScale, 'g', -1, 64),
		"hide_legend":  strconv.FormatBool(r.HideLegend),
	}
}

func (s *PlotService) selection(cells []string) (*plotdata.Selection, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	sel, err := plotdata.SelectIDs(s.c, cells)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

func (s *PlotService) facetRequest(r EmbeddingPlotRequest) (facet.Spec, facet.Request, error) {
	sel, err := s.selection(r.Cells)
	if err != nil {
		return facet.Spec{}, facet.Request{}, err
	}

	var vars []string
	if r.Color != "" {
		vars = []string{r.Color}
	}
	spec := facet.Spec{By: r.SplitBy, IncludeAll: r.IncludeAll}
	req := facet.Request{
		Vars:      vars,
		Embedding: r.Embedding,
		DimX:      r.DimX,
		DimY:      r.DimY,
		Opts:      plotdata.Options{Cells: sel, Assay: r.Assay},
		Params: render.Params{
			ColorVar:    r.Color,
			LegendTitle: r.Color,
			PointSize:   r.PointSize,
			Colormap:    r.Colormap,
			RasterScale: r.RasterScale,
			HideLegend:  r.HideLegend,
		},
	}
	return spec, req, nil
}

// EmbeddingPlot renders an embedding scatter, one panel per facet,
// composed into a single raster.
func (s *PlotService) EmbeddingPlot(r EmbeddingPlotRequest) ([]byte, error) {
	key := cache.PlotKey(s.datasetID, "embedding", r.cacheParams())
	if data, ok := s.cache.GetPlot(key); ok {
		return data, nil
	}

	spec, req, err := s.facetRequest(r)
	if err != nil {
		return nil, err
	}
	panels, err := facet.Render(s.c, spec, req, s.renderer)
	if err != nil {
		return nil, err
	}

	images := make([][]byte, len(panels))
	for i, p := range panels {
		images[i] = p.Image
	}
	data, err := render.Compose(images, 0)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPlot(key, data); err != nil {
		return nil, fmt.Errorf("failed to cache plot: %w", err)
	}
	return data, nil
}

// PanelPayload is the data-out form of one facet panel.
type PanelPayload struct {
	Facet   string          `json:"facet,omitempty"`
	Obs     []string        `json:"obs"`
	Columns []ColumnPayload `json:"columns"`
	X       []float64       `json:"x,omitempty"`
	Y       []float64       `json:"y,omitempty"`
}

// ColumnPayload is one serialized table column.
type ColumnPayload struct {
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Floats []float64 `json:"floats,omitempty"`
	Levels []string  `json:"levels,omitempty"`
}

// EmbeddingData runs the same pipeline in data-out mode and returns the
// per-panel tables as JSON.
func (s *PlotService) EmbeddingData(r EmbeddingPlotRequest) ([]byte, error) {
	key := cache.TableKey(s.datasetID, "embedding", r.cacheParams())
	if data, ok := s.cache.GetTable(key); ok {
		return data, nil
	}

	spec, req, err := s.facetRequest(r)
	if err != nil {
		return nil, err
	}
	panels, err := facet.Tables(s.c, spec, req)
	if err != nil {
		return nil, err
	}

	out := make([]PanelPayload, 0, len(panels))
	for _, p := range panels {
		payload := PanelPayload{Facet: p.Facet.Label, Obs: p.Table.Obs}
		for _, col := range p.Table.Columns {
			payload.Columns = append(payload.Columns, ColumnPayload{
				Name:   col.Name,
				Kind:   col.Kind.String(),
				Floats: col.Floats,
				Levels: col.Levels,
			})
		}
		if r.Embedding != "" {
			xs, ys, _, _, err := plotdata.Coordinates(s.c, r.Embedding, r.DimX, r.DimY, p.Facet.Sel)
			if err != nil {
				return nil, err
			}
			payload.X, payload.Y = xs, ys
		}
		out = append(out, payload)
	}

	data, err := json.Marshal(map[string]interface{}{
		"dataset": s.datasetID,
		"panels":  out,
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetTable(key, data)
	return data, nil
}

// BinPlotRequest parameterizes one binned plot run.
type BinPlotRequest struct {
	Embedding  string
	DimX, DimY int
	Bins       int
	Hex        bool
	Var        string
	Summary    string
	Assay      string
	Cells      []string

	Colormap    string
	RasterScale float64
}

func (r BinPlotRequest) cacheParams() map[string]string {
	return map[string]string{
		"embedding":    r.Embedding,
		"dims":         strconv.Itoa(r.DimX) + "," + strconv.Itoa(r.DimY),
		"bins":         strconv.Itoa(r.Bins),
		"hex":          strconv.FormatBool(r.Hex),
		"var":          r.Var,
		"summary":      r.Summary,
		"assay":        r.Assay,
		"cells":        strings.Join(r.Cells, ","),
		"colormap":     r.Colormap,
		"raster_scale": strconv.FormatFloat(r.RasterScale, 'g', -1, 64),
	}
}

// BinPlot renders a hex- or rect-binned panel. Grid geometry always
// comes from the full embedding extent; the cells filter only restricts
// which observations feed the aggregates.
func (s *PlotService) BinPlot(r BinPlotRequest) ([]byte, error) {
	key := cache.PlotKey(s.datasetID, "bins", r.cacheParams())
	if data, ok := s.cache.GetPlot(key); ok {
		return data, nil
	}

	bins := r.Bins
	if bins <= 0 {
		bins = 30
	}
	kind := summarize.RectGrid
	if r.Hex {
		kind = summarize.HexGrid
	}

	fullX, fullY, xLabel, yLabel, err := plotdata.Coordinates(s.c, r.Embedding, r.DimX, r.DimY, plotdata.All(s.c))
	if err != nil {
		return nil, err
	}
	grid, err := summarize.NewGrid(kind, bins, fullX, fullY)
	if err != nil {
		return nil, err
	}

	sel := plotdata.All(s.c)
	if selPtr, err := s.selection(r.Cells); err != nil {
		return nil, err
	} else if selPtr != nil {
		sel = *selPtr
	}
	xs, ys, _, _, err := plotdata.Coordinates(s.c, r.Embedding, r.DimX, r.DimY, sel)
	if err != nil {
		return nil, err
	}

	var target *plotdata.Column
	if r.Var != "" {
		col, err := plotdata.ExtractColumn(s.c, r.Var, sel, r.Assay)
		if err != nil {
			return nil, err
		}
		target = &col
	}

	summary := r.Summary
	if summary == "" {
		summary = "mean"
	}
	summaries, err := grid.Summarize(xs, ys, target, s.reductions, summary)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.RenderBins(grid, summaries, render.Params{
		Title:       r.Var,
		XLabel:      xLabel,
		YLabel:      yLabel,
		Colormap:    r.Colormap,
		RasterScale: r.RasterScale,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPlot(key, data); err != nil {
		return nil, fmt.Errorf("failed to cache plot: %w", err)
	}
	return data, nil
}

// DotRequest parameterizes one dot-style multi-variable summary.
type DotRequest struct {
	Vars    []string
	GroupBy string
	Summary string
	Assay   string
	Cells   []string
	Scale   bool
}

// DotData computes per-(group, variable) summaries as JSON.
func (s *PlotService) DotData(r DotRequest) ([]byte, error) {
	key := cache.TableKey(s.datasetID, "dot", map[string]string{
		"vars":     strings.Join(r.Vars, ","),
		"group_by": r.GroupBy,
		"summary":  r.Summary,
		"assay":    r.Assay,
		"cells":    strings.Join(r.Cells, ","),
		"scale":    strconv.FormatBool(r.Scale),
	})
	if data, ok := s.cache.GetTable(key); ok {
		return data, nil
	}

	sel, err := s.selection(r.Cells)
	if err != nil {
		return nil, err
	}
	tbl, err := plotdata.Extract(s.c, r.Vars, plotdata.Options{
		Cells:   sel,
		Assay:   r.Assay,
		SplitBy: []string{r.GroupBy},
	})
	if err != nil {
		return nil, err
	}

	groups, err := tbl.Split[0].AsDiscrete()
	if err != nil {
		return nil, err
	}
	summary := r.Summary
	if summary == "" {
		summary = "mean"
	}
	entries, err := summarize.Dot(tbl.Columns, groups, s.reductions, summary, r.Scale)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]interface{}{
		"dataset":  s.datasetID,
		"group_by": r.GroupBy,
		"summary":  summary,
		"entries":  entries,
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetTable(key, data)
	return data, nil
}

// SummaryRequest parameterizes one grouped single-variable summary.
type SummaryRequest struct {
	Var     string
	GroupBy string
	Summary string
	Assay   string
	Cells   []string
}

// SummaryData computes the per-group summary of one variable as JSON.
// Numeric targets go through the named reduction; categorical targets
// report the per-group mode and its share.
func (s *PlotService) SummaryData(r SummaryRequest) ([]byte, error) {
	sel, err := s.selection(r.Cells)
	if err != nil {
		return nil, err
	}
	tbl, err := plotdata.Extract(s.c, []string{r.Var}, plotdata.Options{
		Cells:   sel,
		Assay:   r.Assay,
		SplitBy: []string{r.GroupBy},
	})
	if err != nil {
		return nil, err
	}

	groups, err := tbl.Split[0].AsDiscrete()
	if err != nil {
		return nil, err
	}
	summary := r.Summary
	if summary == "" {
		summary = "mean"
	}
	items, err := summarize.ColumnBy(tbl.Columns[0], groups, s.reductions, summary)
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]interface{}{
		"dataset":  s.datasetID,
		"var":      r.Var,
		"group_by": r.GroupBy,
		"summary":  summary,
		"items":    items,
	})
}
