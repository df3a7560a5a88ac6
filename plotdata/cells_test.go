package plotdata

import (
	"errors"
	"testing"

	"github.com/atlasmap-sc/cellplot/container"
)

func testContainer(t *testing.T) *container.Container {
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
	if err := c.AddNumericAnnotation("score", []float64{10, 20, 30, 40, 50, 60}); err != nil {
		t.Fatalf("AddNumericAnnotation failed: %v", err)
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
	return c
}

func TestSelectionFormsAgree(t *testing.T) {
	c := testContainer(t)

	byID, err := SelectIDs(c, []string{"c4", "c2"})
	if err != nil {
		t.Fatalf("SelectIDs failed: %v", err)
	}
	byIdx, err := SelectIndices(c, []int{3, 1})
	if err != nil {
		t.Fatalf("SelectIndices failed: %v", err)
	}
	byMask, err := SelectMask(c, []bool{false, true, false, true, false, false})
	if err != nil {
		t.Fatalf("SelectMask failed: %v", err)
	}

	for _, sel := range []Selection{byID, byIdx, byMask} {
		got := sel.Indices()
		if len(got) != 2 || got[0] != 1 || got[1] != 3 {
			t.Errorf("normalized indices = %v, want [1 3]", got)
		}
	}
}

func TestSelectMaskWrongLength(t *testing.T) {
	c := testContainer(t)

	_, err := SelectMask(c, []bool{true, false})
	var sm *container.ShapeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if sm.Got != 2 || sm.Want != c.NObs() {
		t.Errorf("unexpected mismatch: got=%d want=%d", sm.Got, sm.Want)
	}
}

func TestSelectUnknowns(t *testing.T) {
	c := testContainer(t)

	var nf *container.NotFoundError
	if _, err := SelectIDs(c, []string{"nope"}); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for unknown ID, got %v", err)
	}
	if _, err := SelectIndices(c, []int{99}); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for out-of-range index, got %v", err)
	}
}

func TestSubsettingIdempotence(t *testing.T) {
	c := testContainer(t)

	mask := []bool{true, false, true, true, false, true}
	once, err := SelectMask(c, mask)
	if err != nil {
		t.Fatalf("SelectMask failed: %v", err)
	}

	// Applying an all-true residual mask to the subset must be a no-op.
	residual := make([]bool, once.Len())
	for i := range residual {
		residual[i] = true
	}
	twice, err := once.Refine(residual)
	if err != nil {
		t.Fatalf("Refine failed: %v", err)
	}

	t1, err := Extract(c, []string{"G1", "cluster"}, Options{Cells: &once})
	if err != nil {
		t.Fatalf("Extract once failed: %v", err)
	}
	t2, err := Extract(c, []string{"G1", "cluster"}, Options{Cells: &twice})
	if err != nil {
		t.Fatalf("Extract twice failed: %v", err)
	}

	if t1.NRows() != t2.NRows() {
		t.Fatalf("row counts differ: %d != %d", t1.NRows(), t2.NRows())
	}
	for i := range t1.Obs {
		if t1.Obs[i] != t2.Obs[i] {
			t.Errorf("row %d differs: %s != %s", i, t1.Obs[i], t2.Obs[i])
		}
	}
	for i := range t1.Columns[0].Floats {
		if t1.Columns[0].Floats[i] != t2.Columns[0].Floats[i] {
			t.Errorf("value %d differs", i)
		}
	}
}

func TestRefineWrongLength(t *testing.T) {
	c := testContainer(t)
	sel := All(c)
	var sm *container.ShapeMismatchError
	if _, err := sel.Refine([]bool{true}); !errors.As(err, &sm) {
		t.Errorf("expected ShapeMismatchError, got %v", err)
	}
}
