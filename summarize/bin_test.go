package summarize

import (
	"testing"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/plotdata"
)

func TestRectGridAssignsExactlyOneBin(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ys := []float64{0, 10, 5, 3, 7, 2, 8, 1, 9, 4, 6}

	g, err := NewGrid(RectGrid, 4, xs, ys)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	for i := range xs {
		id := g.Assign(xs[i], ys[i])
		if id.Q < 0 || id.Q >= 4 || id.R < 0 || id.R >= 4 {
			t.Errorf("point %d assigned out-of-range bin %+v", i, id)
		}
	}

	// Max-edge points stay inside the grid.
	if id := g.Assign(10, 10); id.Q != 3 || id.R != 3 {
		t.Errorf("max corner bin = %+v, want {3 3}", id)
	}
}

func TestGridGeometryFromFullExtent(t *testing.T) {
	xs := []float64{0, 2, 4, 6, 8, 10}
	ys := []float64{0, 2, 4, 6, 8, 10}

	full, err := NewGrid(HexGrid, 8, xs, ys)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	// A facet's grid must be built from the same pre-filter extent; the
	// same grid value therefore yields identical assignments for shared
	// points regardless of which facet subset is summarized.
	sub := xs[:3]
	for i := range sub {
		a := full.Assign(xs[i], ys[i])
		b := full.Assign(sub[i], ys[i])
		if a != b {
			t.Errorf("assignment moved under filtering: %+v != %+v", a, b)
		}
	}

	minX, maxX, minY, maxY := full.Extent()
	if minX != 0 || maxX != 10 || minY != 0 || maxY != 10 {
		t.Errorf("extent = %v %v %v %v, want full coordinate extent", minX, maxX, minY, maxY)
	}
}

func TestHexAssignDeterministic(t *testing.T) {
	xs := []float64{0.3, 5.1, 7.7, 2.2, 9.9}
	ys := []float64{1.1, 4.4, 0.2, 8.8, 9.1}
	g, err := NewGrid(HexGrid, 6, xs, ys)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	first := make([]BinID, len(xs))
	for i := range xs {
		first[i] = g.Assign(xs[i], ys[i])
	}
	for run := 0; run < 5; run++ {
		for i := range xs {
			if got := g.Assign(xs[i], ys[i]); got != first[i] {
				t.Fatalf("run %d: assignment changed for point %d: %+v != %+v", run, i, got, first[i])
			}
		}
	}
}

func TestSummarizeDensityAndContinuousTarget(t *testing.T) {
	// Two clusters of points: four near the origin, two near (10, 10).
	xs := []float64{0, 0.1, 0.2, 0.3, 10, 9.9}
	ys := []float64{0, 0.1, 0.2, 0.3, 10, 9.9}
	target := plotdata.Column{
		Name:   "G1",
		Kind:   container.Numeric,
		Floats: []float64{1, 2, 3, 4, 10, 20},
	}

	g, err := NewGrid(RectGrid, 2, xs, ys)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	reg := NewRegistry()

	bins, err := g.Summarize(xs, ys, &target, reg, "mean")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(bins) != 2 {
		t.Fatalf("occupied bins = %d, want 2", len(bins))
	}
	// First-seen order: origin cluster first.
	if bins[0].Count != 4 || bins[0].Value != 2.5 {
		t.Errorf("bin 0 = %+v, want count 4 mean 2.5", bins[0])
	}
	if bins[1].Count != 2 || bins[1].Value != 15 {
		t.Errorf("bin 1 = %+v, want count 2 mean 15", bins[1])
	}

	// Density-only summary: target nil.
	dens, err := g.Summarize(xs, ys, nil, reg, "")
	if err != nil {
		t.Fatalf("density Summarize failed: %v", err)
	}
	if dens[0].Count != 4 || dens[1].Count != 2 {
		t.Errorf("density counts = %d, %d", dens[0].Count, dens[1].Count)
	}
}

func TestSummarizeDiscreteTarget(t *testing.T) {
	xs := []float64{0, 0.1, 0.2, 0.3}
	ys := []float64{0, 0, 0, 0}
	target := plotdata.Column{
		Name:   "cluster",
		Kind:   container.Categorical,
		Levels: []string{"A", "B", "A", "B"},
	}

	g, err := NewGrid(RectGrid, 1, xs, ys)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	bins, err := g.Summarize(xs, ys, &target, NewRegistry(), "")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(bins) != 1 || bins[0].Level != "A" || bins[0].Share != 0.5 {
		t.Errorf("discrete bin = %+v, want first-seen mode A share 0.5", bins)
	}
}

func TestSummarizeErrors(t *testing.T) {
	g, err := NewGrid(RectGrid, 2, []float64{0, 1}, []float64{0, 1})
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	reg := NewRegistry()

	target := plotdata.Column{Name: "v", Kind: container.Numeric, Floats: []float64{1, 2}}
	if _, err := g.Summarize([]float64{0, 1}, []float64{0, 1}, &target, reg, "nope"); err == nil {
		t.Errorf("expected UnknownSummaryError")
	}
	short := plotdata.Column{Name: "v", Kind: container.Numeric, Floats: []float64{1}}
	if _, err := g.Summarize([]float64{0, 1}, []float64{0, 1}, &short, reg, "mean"); err == nil {
		t.Errorf("expected ShapeMismatchError for short target")
	}
	if _, err := NewGrid(RectGrid, 0, []float64{0}, []float64{0}); err == nil {
		t.Errorf("expected error for zero bin count")
	}
	if _, err := NewGrid(RectGrid, 4, nil, nil); err == nil {
		t.Errorf("expected error for empty coordinates")
	}
}
