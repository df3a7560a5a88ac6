package summarize

import (
	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/plotdata"
)

// DotEntry is one (group, variable) cell of a dot-style multi-variable
// summary: the continuous summary of expression plus the fraction of
// observations with strictly positive expression. Scaled carries the
// per-variable centered/scaled value when scaling is requested, and the
// raw Summary otherwise.
type DotEntry struct {
	Group       string
	Var         string
	N           int
	Summary     float64
	PctPositive float64
	Scaled      float64
}

// Dot computes per-(group, variable) summaries for a set of numeric
// variable columns. With scale set, each variable's summarized values
// are independently centered and scaled across groups so all variables
// occupy a comparable visual range.
func Dot(vars []plotdata.Column, groups []string, reg *Registry, summary string, scale bool) ([]DotEntry, error) {
	fn, err := reg.Get(summary)
	if err != nil {
		return nil, err
	}

	order, byGroup := partition(groups)
	out := make([]DotEntry, 0, len(vars)*len(order))

	for _, col := range vars {
		if col.Kind != container.Numeric {
			return nil, &container.TypeMismatchError{Name: col.Name, Got: col.Kind, Want: container.Numeric}
		}
		if len(col.Floats) != len(groups) {
			return nil, &container.ShapeMismatchError{What: "dot variable " + col.Name, Got: len(col.Floats), Want: len(groups)}
		}

		entries := make([]DotEntry, 0, len(order))
		summaries := make([]float64, 0, len(order))
		for _, g := range order {
			idx := byGroup[g]
			vals := make([]float64, len(idx))
			positive := 0
			for i, j := range idx {
				vals[i] = col.Floats[j]
				if col.Floats[j] > 0 {
					positive++
				}
			}
			s := fn(vals)
			entries = append(entries, DotEntry{
				Group:       g,
				Var:         col.Name,
				N:           len(idx),
				Summary:     s,
				PctPositive: float64(positive) / float64(len(idx)),
				Scaled:      s,
			})
			summaries = append(summaries, s)
		}

		if scale {
			center := Mean(summaries)
			spread := SD(summaries)
			for i := range entries {
				if spread > 0 {
					entries[i].Scaled = (entries[i].Summary - center) / spread
				} else {
					entries[i].Scaled = 0
				}
			}
		}
		out = append(out, entries...)
	}
	return out, nil
}
