package container

import (
	"errors"
	"testing"
)

func TestDefaultAssayPriority(t *testing.T) {
	c := testContainer(t)
	// logcounts beats counts even though counts was registered first.
	if name, err := c.DefaultAssay(); err != nil || name != "logcounts" {
		t.Errorf("DefaultAssay = %q, %v; want logcounts", name, err)
	}

	onlyCounts, _ := New([]string{"c1"})
	onlyCounts.AddAssay("counts", []string{"G1"}, []float64{1})
	if name, _ := onlyCounts.DefaultAssay(); name != "counts" {
		t.Errorf("DefaultAssay = %q, want counts", name)
	}

	firstPresent, _ := New([]string{"c1"})
	firstPresent.AddAssay("velocity", []string{"G1"}, []float64{1})
	firstPresent.AddAssay("spliced", []string{"G1"}, []float64{1})
	if name, _ := firstPresent.DefaultAssay(); name != "velocity" {
		t.Errorf("DefaultAssay = %q, want first-registered velocity", name)
	}

	empty, _ := New([]string{"c1"})
	var nf *NotFoundError
	if _, err := empty.DefaultAssay(); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError with no assays, got %v", err)
	}
}

func TestFeatureLookup(t *testing.T) {
	c := testContainer(t)

	vals, err := c.Feature("G1")
	if err != nil {
		t.Fatalf("Feature failed: %v", err)
	}
	if len(vals) != c.NObs() {
		t.Errorf("feature length %d != observation count %d", len(vals), c.NObs())
	}
	// Default assay is logcounts.
	if vals[1] != 0.5 {
		t.Errorf("expected logcounts value 0.5, got %v", vals[1])
	}

	// Explicit assay override.
	raw, err := c.Feature("G1", "counts")
	if err != nil {
		t.Fatalf("Feature with assay override failed: %v", err)
	}
	if raw[1] != 1 {
		t.Errorf("expected counts value 1, got %v", raw[1])
	}

	var nf *NotFoundError
	if _, err := c.Feature("NOPE"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for missing feature, got %v", err)
	}
	if _, err := c.Feature("G1", "nope"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for missing assay, got %v", err)
	}

	// Lookup is case-sensitive.
	if c.HasFeature("g1") {
		t.Errorf("feature lookup should be case-sensitive")
	}
}

func TestMetadataLookup(t *testing.T) {
	c := testContainer(t)

	a, err := c.Metadata("cluster")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if a.Kind != Categorical || len(a.Values) != c.NObs() {
		t.Errorf("unexpected cluster column: kind=%v len=%d", a.Kind, a.Len())
	}

	s, err := c.Metadata("score")
	if err != nil {
		t.Fatalf("Metadata score failed: %v", err)
	}
	if s.Kind != Numeric {
		t.Errorf("score should stay numeric, got %v", s.Kind)
	}

	var nf *NotFoundError
	if _, err := c.Metadata("nope"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestIdentAlias(t *testing.T) {
	c := testContainer(t)

	names := c.MetadataNames()
	found := false
	for _, n := range names {
		if n == IdentName {
			found = true
		}
	}
	if !found {
		t.Errorf("MetadataNames should include %q, got %v", IdentName, names)
	}

	id, err := c.Metadata(IdentName)
	if err != nil {
		t.Fatalf("Metadata(ident) failed: %v", err)
	}
	if id.Values[0] != "A" || id.Values[1] != "B" {
		t.Errorf("ident should alias the cluster column, got %v", id.Values)
	}

	// Without a designated identity column, ident is a single constant level.
	plain, _ := New([]string{"c1", "c2"})
	id, err = plain.Metadata(IdentName)
	if err != nil {
		t.Fatalf("Metadata(ident) on plain container failed: %v", err)
	}
	for _, v := range id.Values {
		if v != "all" {
			t.Errorf("undesignated ident should be constant \"all\", got %v", id.Values)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	c := testContainer(t)

	// A name present both as annotation column and feature: annotation wins,
	// and the tie-break is surfaced via the resolution kind.
	if err := c.AddCategoricalAnnotation("G1", []string{"hi", "lo", "hi", "lo"}); err != nil {
		t.Fatalf("AddCategoricalAnnotation failed: %v", err)
	}
	res, err := c.Resolve("G1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != KindMetadata {
		t.Errorf("annotation should shadow feature, resolved as %v", res.Kind)
	}

	res, err = c.Resolve("G2")
	if err != nil || res.Kind != KindFeature {
		t.Errorf("Resolve(G2) = %v, %v; want feature", res.Kind, err)
	}

	res, err = c.Resolve("umap")
	if err != nil || res.Kind != KindEmbedding {
		t.Errorf("Resolve(umap) = %v, %v; want embedding", res.Kind, err)
	}

	var vnf *VariableNotFoundError
	if _, err := c.Resolve("nothing"); !errors.As(err, &vnf) {
		t.Fatalf("expected VariableNotFoundError, got %v", err)
	}
}

func TestEmbeddingLookup(t *testing.T) {
	c := testContainer(t)

	e, err := c.Embedding("umap")
	if err != nil {
		t.Fatalf("Embedding failed: %v", err)
	}
	if e.Key != "UMAP" || e.Dims != 2 {
		t.Errorf("unexpected embedding: key=%q dims=%d", e.Key, e.Dims)
	}
	if e.At(2, 0) != 2 || e.At(3, 1) != 3 {
		t.Errorf("unexpected embedding coordinates")
	}

	var nf *NotFoundError
	if _, err := c.Embedding("tsne"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
