package container

import (
	"fmt"
)

// Source is the capability interface an externally-produced experiment
// object must expose to back the accessor. Adapters for incompatible
// upstream container shapes implement Source; they are swappable
// implementations, not an inheritance chain.
type Source interface {
	ObservationIDs() []string
	AssayNames() []string
	// Assay returns the feature row names and the row-major
	// feature-by-observation values of one named matrix.
	Assay(name string) (features []string, values []float64, err error)
	AnnotationNames() []string
	Annotation(name string) (Annotation, error)
	EmbeddingNames() []string
	// Embedding returns the axis key, dimension count and row-major
	// observation-by-dimension coordinates of one named embedding.
	Embedding(name string) (key string, dims int, coords []float64, err error)
	IsBulk() bool
}

// Matrix is one named feature-by-observation matrix in a MatrixSet.
type Matrix struct {
	Name     string
	Features []string
	Values   []float64
}

// MatrixSet is the "named list of matrices" import shape: raw matrices
// plus the shared observation identifiers, with no annotations or
// embeddings of its own.
type MatrixSet struct {
	Obs      []string
	Matrices []Matrix
	Bulk     bool
}

// ReductionSpec supplies one embedding to Import.
type ReductionSpec struct {
	Name   string
	Key    string
	Dims   int
	Coords []float64
}

// ImportOptions controls how Import merges caller-supplied metadata and
// reductions into the constructed container. The zero value combines
// supplied metadata with any columns already present on the source,
// supplied columns overriding same-named existing ones.
type ImportOptions struct {
	Metadata   []Annotation
	Reductions []ReductionSpec
	// ReplaceMetadata discards source annotation columns instead of
	// merging with them.
	ReplaceMetadata bool
	// Ident designates the identity column after import.
	Ident string
}

// Import normalizes a recognized external shape into a canonical
// container. raw may be a *MatrixSet or any Source implementation.
func Import(raw any, opts ImportOptions) (*Container, error) {
	var c *Container
	var err error

	switch in := raw.(type) {
	case *MatrixSet:
		c, err = fromMatrixSet(in)
	case Source:
		c, err = FromSource(in, opts.ReplaceMetadata)
	default:
		return nil, fmt.Errorf("unrecognized import input type: %T", raw)
	}
	if err != nil {
		return nil, err
	}

	// Caller-supplied metadata overrides same-named existing columns.
	for _, a := range opts.Metadata {
		switch a.Kind {
		case Categorical:
			err = c.AddCategoricalAnnotation(a.Name, a.Values)
		default:
			err = c.AddNumericAnnotation(a.Name, a.Numeric)
		}
		if err != nil {
			return nil, fmt.Errorf("import metadata %q: %w", a.Name, err)
		}
	}

	for _, r := range opts.Reductions {
		if err := c.AddEmbedding(r.Name, r.Key, r.Dims, r.Coords); err != nil {
			return nil, fmt.Errorf("import reduction %q: %w", r.Name, err)
		}
	}

	if opts.Ident != "" {
		if err := c.SetIdent(opts.Ident); err != nil {
			return nil, fmt.Errorf("import ident: %w", err)
		}
	}

	return c, nil
}

func fromMatrixSet(in *MatrixSet) (*Container, error) {
	c, err := New(in.Obs)
	if err != nil {
		return nil, err
	}
	for _, m := range in.Matrices {
		if err := c.AddAssay(m.Name, m.Features, m.Values); err != nil {
			return nil, err
		}
	}
	if in.Bulk {
		c = c.SetBulk(true)
	}
	return c, nil
}

// FromSource adapts an externally-produced experiment object into a
// canonical container. With discardMetadata set, the source's annotation
// columns are not carried over.
func FromSource(src Source, discardMetadata bool) (*Container, error) {
	c, err := New(src.ObservationIDs())
	if err != nil {
		return nil, err
	}

	for _, name := range src.AssayNames() {
		features, values, err := src.Assay(name)
		if err != nil {
			return nil, fmt.Errorf("source assay %q: %w", name, err)
		}
		if err := c.AddAssay(name, features, values); err != nil {
			return nil, err
		}
	}

	if !discardMetadata {
		for _, name := range src.AnnotationNames() {
			a, err := src.Annotation(name)
			if err != nil {
				return nil, fmt.Errorf("source annotation %q: %w", name, err)
			}
			switch a.Kind {
			case Categorical:
				err = c.AddCategoricalAnnotation(name, a.Values)
			default:
				err = c.AddNumericAnnotation(name, a.Numeric)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	for _, name := range src.EmbeddingNames() {
		key, dims, coords, err := src.Embedding(name)
		if err != nil {
			return nil, fmt.Errorf("source embedding %q: %w", name, err)
		}
		if err := c.AddEmbedding(name, key, dims, coords); err != nil {
			return nil, err
		}
	}

	if src.IsBulk() {
		c = c.SetBulk(true)
	}
	return c, nil
}
