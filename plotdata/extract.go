package plotdata

import (
	"fmt"

	"github.com/atlasmap-sc/cellplot/container"
)

// Options controls one extraction run.
type Options struct {
	// Cells restricts the run to a subset of observations; nil keeps
	// all of them.
	Cells *Selection
	// Assay overrides the container's default-assay resolution for
	// feature variables.
	Assay string
	// SplitBy names the metadata columns whose levels define facets.
	// The resulting grouping columns are carried on Table.Split.
	SplitBy []string
}

// Extract builds a tidy table from one or more variable specifications.
// Each spec is a feature name, a metadata name, or the "ident"
// pseudo-variable; a name matching none of the namespaces fails with
// VariableNotFoundError. A failure anywhere aborts the whole build; no
// partially-populated table is ever returned.
func Extract(c *container.Container, vars []string, opts Options) (*Table, error) {
	sel := All(c)
	if opts.Cells != nil {
		sel = *opts.Cells
	}

	tbl := &Table{
		Obs:     make([]string, sel.Len()),
		Columns: make([]Column, 0, len(vars)),
		Split:   make([]Column, 0, len(opts.SplitBy)),
	}
	allObs := c.Observations()
	for i, idx := range sel.Indices() {
		tbl.Obs[i] = allObs[idx]
	}

	for _, name := range vars {
		col, err := extractVar(c, name, sel, opts.Assay)
		if err != nil {
			return nil, err
		}
		tbl.Columns = append(tbl.Columns, col)
	}

	for _, name := range opts.SplitBy {
		a, err := c.Metadata(name)
		if err != nil {
			return nil, fmt.Errorf("split_by: %w", err)
		}
		if a.Kind != container.Categorical {
			return nil, &container.TypeMismatchError{
				Name: name,
				Got:  a.Kind,
				Want: container.Categorical,
			}
		}
		tbl.Split = append(tbl.Split, filterCategorical(name, a.Values, sel))
	}

	return tbl, nil
}

// ExtractColumn resolves a single variable over a selection.
func ExtractColumn(c *container.Container, name string, sel Selection, assay string) (Column, error) {
	return extractVar(c, name, sel, assay)
}

func extractVar(c *container.Container, name string, sel Selection, assay string) (Column, error) {
	res, err := c.Resolve(name)
	if err != nil {
		return Column{}, err
	}

	switch res.Kind {
	case container.KindMetadata:
		a, err := c.Metadata(name)
		if err != nil {
			return Column{}, err
		}
		// Metadata keeps its declared type; no silent coercion.
		if a.Kind == container.Categorical {
			return filterCategorical(name, a.Values, sel), nil
		}
		return filterNumeric(name, a.Numeric, sel), nil

	case container.KindFeature:
		var vals []float64
		if assay != "" {
			vals, err = c.Feature(name, assay)
		} else {
			vals, err = c.Feature(name)
		}
		if err != nil {
			return Column{}, err
		}
		return filterNumeric(name, vals, sel), nil

	default:
		// Embeddings are coordinate lookups, not table variables.
		return Column{}, fmt.Errorf("variable %q resolves to an embedding; use Coordinates", name)
	}
}

// Coordinates extracts two embedding dimensions over a selection,
// returning the filtered x/y vectors and the axis labels derived from
// the embedding's key prefix. Dimensions are zero-based.
func Coordinates(c *container.Container, embedding string, dimX, dimY int, sel Selection) (xs, ys []float64, xLabel, yLabel string, err error) {
	e, err := c.Embedding(embedding)
	if err != nil {
		return nil, nil, "", "", err
	}
	if dimX < 0 || dimX >= e.Dims || dimY < 0 || dimY >= e.Dims {
		return nil, nil, "", "", &container.ShapeMismatchError{
			What: "embedding " + embedding + " dimension",
			Got:  maxInt(dimX, dimY) + 1,
			Want: e.Dims,
		}
	}

	xs = make([]float64, sel.Len())
	ys = make([]float64, sel.Len())
	for i, idx := range sel.Indices() {
		xs[i] = e.At(idx, dimX)
		ys[i] = e.At(idx, dimY)
	}
	xLabel = fmt.Sprintf("%s_%d", e.Key, dimX+1)
	yLabel = fmt.Sprintf("%s_%d", e.Key, dimY+1)
	return xs, ys, xLabel, yLabel, nil
}

func filterNumeric(name string, values []float64, sel Selection) Column {
	out := make([]float64, sel.Len())
	for i, idx := range sel.Indices() {
		out[i] = values[idx]
	}
	return Column{Name: name, Kind: container.Numeric, Floats: out}
}

func filterCategorical(name string, values []string, sel Selection) Column {
	out := make([]string, sel.Len())
	for i, idx := range sel.Indices() {
		out[i] = values[idx]
	}
	return Column{Name: name, Kind: container.Categorical, Levels: out}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
