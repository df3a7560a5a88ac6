// Package facet splits a plotting run into panels. Enumeration derives
// the panel set from the levels actually present in the data, and the
// orchestrator re-runs the extraction pipeline once per panel so each
// facet is an ordinary single-plot run over a refined selection.
package facet

import (
	"strings"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/plotdata"
	"github.com/atlasmap-sc/cellplot/render"
)

// Mode selects how multiple split columns combine into facets.
type Mode int

const (
	// Crossed makes one facet per observed combination of levels.
	Crossed Mode = iota
	// PerColumn makes one facet per level of each split column
	// independently.
	PerColumn
)

const defaultAllLabel = "all"

// Spec describes one faceting request.
type Spec struct {
	// By names the categorical metadata columns that define facets.
	By   []string
	Mode Mode
	// IncludeAll prepends an unfiltered facet covering every retained
	// observation.
	IncludeAll bool
	// AllLabel titles the IncludeAll facet; empty means "all".
	AllLabel string
}

// Facet is one panel of a faceted run.
type Facet struct {
	// Label is the panel title, derived from the defining levels.
	Label string
	// Values holds the defining level per split column (Crossed mode)
	// or the single level of Column (PerColumn mode).
	Column string
	Values []string
	// Sel is the refined selection covering the facet's observations.
	Sel plotdata.Selection
	// All marks the IncludeAll facet.
	All bool
}

// Enumerate lists the facets a spec induces over a selection. Only
// combinations present in the data become facets, in first-seen
// observation order; empty panels are never produced. A nil base means
// all observations.
func Enumerate(c *container.Container, spec Spec, base *plotdata.Selection) ([]Facet, error) {
	sel := plotdata.All(c)
	if base != nil {
		sel = *base
	}

	cols := make([]plotdata.Column, 0, len(spec.By))
	for _, name := range spec.By {
		col, err := plotdata.ExtractColumn(c, name, sel, "")
		if err != nil {
			return nil, err
		}
		if col.Kind != container.Categorical {
			return nil, &container.TypeMismatchError{
				Name: name,
				Got:  col.Kind,
				Want: container.Categorical,
			}
		}
		cols = append(cols, col)
	}

	var out []Facet
	if spec.IncludeAll {
		label := spec.AllLabel
		if label == "" {
			label = defaultAllLabel
		}
		out = append(out, Facet{Label: label, Sel: sel, All: true})
	}

	switch spec.Mode {
	case PerColumn:
		for _, col := range cols {
			for _, lvl := range col.UniqueLevels() {
				mask := make([]bool, sel.Len())
				for i, v := range col.Levels {
					mask[i] = v == lvl
				}
				refined, err := sel.Refine(mask)
				if err != nil {
					return nil, err
				}
				out = append(out, Facet{
					Label:  col.Name + ": " + lvl,
					Column: col.Name,
					Values: []string{lvl},
					Sel:    refined,
				})
			}
		}

	default: // Crossed
		if len(cols) == 0 {
			break
		}
		var order []string
		combos := make(map[string][]string)
		for i := 0; i < sel.Len(); i++ {
			values := make([]string, len(cols))
			for j, col := range cols {
				values[j] = col.Levels[i]
			}
			key := strings.Join(values, "\x00")
			if _, ok := combos[key]; !ok {
				order = append(order, key)
				combos[key] = values
			}
		}
		for _, key := range order {
			values := combos[key]
			mask := make([]bool, sel.Len())
			for i := range mask {
				match := true
				for j, col := range cols {
					if col.Levels[i] != values[j] {
						match = false
						break
					}
				}
				mask[i] = match
			}
			refined, err := sel.Refine(mask)
			if err != nil {
				return nil, err
			}
			out = append(out, Facet{
				Label:  strings.Join(values, ", "),
				Values: values,
				Sel:    refined,
			})
		}
	}

	return out, nil
}

// Request is the per-panel pipeline input replayed for every facet.
type Request struct {
	// Vars are the table variables extracted for each panel.
	Vars []string
	// Embedding, when set, supplies the panel coordinates from the
	// named embedding's DimX/DimY dimensions.
	Embedding  string
	DimX, DimY int
	// Opts carries the shared selection and assay override. Opts.Cells
	// bounds the whole faceted run before facet refinement.
	Opts plotdata.Options
	// Params is the shared styling; each panel gets its facet label as
	// title unless one is already set.
	Params render.Params
}

// Panel is one rendered facet.
type Panel struct {
	Facet Facet
	Table *plotdata.Table
	// Image holds the rendered artifact; nil in data-out runs.
	Image []byte
}

// Tables runs the extraction pipeline once per facet without rendering.
// This is the data-out path: callers get the exact per-panel tables the
// renderer would have seen.
func Tables(c *container.Container, spec Spec, req Request) ([]Panel, error) {
	return run(c, spec, req, nil)
}

// Render runs the full pipeline per facet through the delegate. Panels
// are produced sequentially in facet order.
func Render(c *container.Container, spec Spec, req Request, r render.Renderer) ([]Panel, error) {
	return run(c, spec, req, r)
}

func run(c *container.Container, spec Spec, req Request, r render.Renderer) ([]Panel, error) {
	facets, err := Enumerate(c, spec, req.Opts.Cells)
	if err != nil {
		return nil, err
	}
	if len(facets) == 0 {
		// No split columns: a single unfaceted panel.
		sel := plotdata.All(c)
		if req.Opts.Cells != nil {
			sel = *req.Opts.Cells
		}
		facets = []Facet{{Sel: sel, All: true}}
	}

	panels := make([]Panel, 0, len(facets))
	for _, f := range facets {
		opts := req.Opts
		opts.Cells = &f.Sel

		tbl, err := plotdata.Extract(c, req.Vars, opts)
		if err != nil {
			return nil, err
		}

		panel := Panel{Facet: f, Table: tbl}
		if r != nil {
			p := req.Params
			if p.Title == "" && f.Label != "" {
				p.Title = f.Label
			}

			var xs, ys []float64
			if req.Embedding != "" {
				var xl, yl string
				xs, ys, xl, yl, err = plotdata.Coordinates(c, req.Embedding, req.DimX, req.DimY, f.Sel)
				if err != nil {
					return nil, err
				}
				if p.XLabel == "" {
					p.XLabel = xl
				}
				if p.YLabel == "" {
					p.YLabel = yl
				}
			}

			panel.Image, err = r.Render(tbl, xs, ys, p)
			if err != nil {
				return nil, err
			}
		}
		panels = append(panels, panel)
	}
	return panels, nil
}
