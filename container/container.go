// Package container defines the canonical in-memory experiment container
// and the accessor that resolves named lookups against it. A container
// holds one or more feature-by-observation assay matrices, an annotation
// table, named low-dimensional embeddings, and a bulk/single-cell flag,
// all joined on a shared ordered set of observation identifiers.
package container

import (
	"fmt"
)

// ColumnKind distinguishes numeric from categorical annotation columns.
type ColumnKind int

const (
	Numeric ColumnKind = iota
	Categorical
)

func (k ColumnKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Annotation is one column of the annotation table, aligned to the
// container's observation order. Exactly one of Numeric/Values is
// populated, per Kind.
type Annotation struct {
	Name    string
	Kind    ColumnKind
	Numeric []float64
	Values  []string
}

// Len returns the number of observations the column covers.
func (a Annotation) Len() int {
	if a.Kind == Categorical {
		return len(a.Values)
	}
	return len(a.Numeric)
}

// Assay is one named feature-by-observation matrix. Values are stored
// row-major, so the expression vector of feature i is the contiguous
// slice Values[i*nObs : (i+1)*nObs].
type Assay struct {
	Features []string
	Values   []float64

	featureIndex map[string]int
	nObs         int
}

// Row returns the value row for a feature index.
func (a *Assay) Row(i int) []float64 {
	return a.Values[i*a.nObs : (i+1)*a.nObs]
}

// Embedding is a per-observation coordinate matrix with Dims columns,
// stored row-major [observation][dimension]. Key is the short prefix
// used to label plot axes (e.g. "UMAP" -> "UMAP_1", "UMAP_2").
type Embedding struct {
	Key    string
	Dims   int
	Coords []float64
}

// At returns the coordinate of observation i in dimension d.
func (e *Embedding) At(i, d int) float64 {
	return e.Coords[i*e.Dims+d]
}

// IdentName is the synthetic metadata name that aliases the designated
// identity column (cluster assignment for single-cell data, sample
// grouping for bulk). It always resolves, even when no identity column
// has been designated.
const IdentName = "ident"

// Container is the canonical in-memory shape every accessor and pipeline
// stage operates on. It is treated as immutable during a pipeline run;
// assays, annotation columns and embeddings may be appended between runs
// but are never removed or reshaped.
type Container struct {
	obs      map[string]int
	obsOrder []string

	assays     map[string]*Assay
	assayOrder []string

	annotations map[string]Annotation
	annOrder    []string

	embeddings map[string]*Embedding
	embOrder   []string

	identColumn string
	bulk        bool
}

// New creates an empty container over the given observation identifiers.
// Identifiers must be unique; they are the join key for every pipeline
// stage.
func New(obs []string) (*Container, error) {
	c := &Container{
		obs:         make(map[string]int, len(obs)),
		obsOrder:    make([]string, len(obs)),
		assays:      make(map[string]*Assay),
		annotations: make(map[string]Annotation),
		embeddings:  make(map[string]*Embedding),
	}
	copy(c.obsOrder, obs)
	for i, id := range obs {
		if _, dup := c.obs[id]; dup {
			return nil, fmt.Errorf("duplicate observation identifier: %s", id)
		}
		c.obs[id] = i
	}
	return c, nil
}

// NObs returns the number of observations.
func (c *Container) NObs() int {
	return len(c.obsOrder)
}

// Observations returns the observation identifiers in container order.
func (c *Container) Observations() []string {
	out := make([]string, len(c.obsOrder))
	copy(out, c.obsOrder)
	return out
}

// ObservationIndex returns the container-order index of an observation.
func (c *Container) ObservationIndex(id string) (int, bool) {
	i, ok := c.obs[id]
	return i, ok
}

// AddAssay registers a named matrix. Values must be row-major with
// len(features)*NObs() entries.
func (c *Container) AddAssay(name string, features []string, values []float64) error {
	want := len(features) * c.NObs()
	if len(values) != want {
		return &ShapeMismatchError{What: "assay " + name, Got: len(values), Want: want}
	}
	idx := make(map[string]int, len(features))
	for i, f := range features {
		if _, dup := idx[f]; dup {
			return fmt.Errorf("assay %s: duplicate feature name: %s", name, f)
		}
		idx[f] = i
	}
	feats := make([]string, len(features))
	copy(feats, features)
	vals := make([]float64, len(values))
	copy(vals, values)
	if _, exists := c.assays[name]; !exists {
		c.assayOrder = append(c.assayOrder, name)
	}
	c.assays[name] = &Assay{Features: feats, Values: vals, featureIndex: idx, nObs: c.NObs()}
	return nil
}

// AddNumericAnnotation appends (or replaces) a numeric annotation column.
func (c *Container) AddNumericAnnotation(name string, values []float64) error {
	if len(values) != c.NObs() {
		return &ShapeMismatchError{What: "annotation " + name, Got: len(values), Want: c.NObs()}
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	c.putAnnotation(Annotation{Name: name, Kind: Numeric, Numeric: vals})
	return nil
}

// AddCategoricalAnnotation appends (or replaces) a categorical column.
func (c *Container) AddCategoricalAnnotation(name string, values []string) error {
	if len(values) != c.NObs() {
		return &ShapeMismatchError{What: "annotation " + name, Got: len(values), Want: c.NObs()}
	}
	vals := make([]string, len(values))
	copy(vals, values)
	c.putAnnotation(Annotation{Name: name, Kind: Categorical, Values: vals})
	return nil
}

func (c *Container) putAnnotation(a Annotation) {
	if _, exists := c.annotations[a.Name]; !exists {
		c.annOrder = append(c.annOrder, a.Name)
	}
	c.annotations[a.Name] = a
}

// AddEmbedding registers a named embedding. Coords must be row-major
// with NObs()*dims entries; key labels the plot axes.
func (c *Container) AddEmbedding(name, key string, dims int, coords []float64) error {
	if dims <= 0 {
		return fmt.Errorf("embedding %s: invalid dimension count: %d", name, dims)
	}
	want := c.NObs() * dims
	if len(coords) != want {
		return &ShapeMismatchError{What: "embedding " + name, Got: len(coords), Want: want}
	}
	vals := make([]float64, len(coords))
	copy(vals, coords)
	if _, exists := c.embeddings[name]; !exists {
		c.embOrder = append(c.embOrder, name)
	}
	c.embeddings[name] = &Embedding{Key: key, Dims: dims, Coords: vals}
	return nil
}

// SetIdent designates an annotation column as the identity column backing
// the "ident" pseudo-variable.
func (c *Container) SetIdent(column string) error {
	if _, ok := c.annotations[column]; !ok {
		return &NotFoundError{Kind: "metadata", Name: column}
	}
	c.identColumn = column
	return nil
}

// IsBulk reports whether the container holds bulk samples rather than
// single cells.
func (c *Container) IsBulk() bool {
	return c.bulk
}

// SetBulk returns a new container value with the bulk flag set. The
// receiver is not mutated; all other fields are shared with the result.
func (c *Container) SetBulk(bulk bool) *Container {
	out := *c
	out.bulk = bulk
	return &out
}

// ObservationLabel returns the unit-of-observation label used in default
// axis titles.
func (c *Container) ObservationLabel() string {
	if c.bulk {
		return "Samples"
	}
	return "Cells"
}
