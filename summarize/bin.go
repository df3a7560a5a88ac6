package summarize

import (
	"fmt"
	"math"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/plotdata"
)

// GridKind selects the plane partition used for spatial binning.
type GridKind int

const (
	RectGrid GridKind = iota
	HexGrid
)

// Grid is a regular partition of the 2-D plot plane. Geometry is
// computed once from the full pre-filter coordinate extent, so bins stay
// comparable across facets of the same plot family; per-facet filtering
// never moves bin boundaries.
type Grid struct {
	Kind GridKind
	Bins int

	minX, maxX float64
	minY, maxY float64

	// rect cell sizes
	dx, dy float64
	// hex radius (pointy-top)
	size float64
}

// BinID identifies one bin of a grid. Rect grids use column/row indices;
// hex grids use axial coordinates.
type BinID struct {
	Q int
	R int
}

// NewGrid computes bin geometry from the full coordinate extent. bins is
// the bin count along the x axis.
func NewGrid(kind GridKind, bins int, xs, ys []float64) (*Grid, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("invalid bin count: %d", bins)
	}
	if len(xs) != len(ys) {
		return nil, &container.ShapeMismatchError{What: "grid coordinates", Got: len(ys), Want: len(xs)}
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("cannot compute bin geometry from an empty coordinate set")
	}

	g := &Grid{Kind: kind, Bins: bins}
	g.minX, g.maxX = xs[0], xs[0]
	g.minY, g.maxY = ys[0], ys[0]
	for i := range xs {
		if xs[i] < g.minX {
			g.minX = xs[i]
		}
		if xs[i] > g.maxX {
			g.maxX = xs[i]
		}
		if ys[i] < g.minY {
			g.minY = ys[i]
		}
		if ys[i] > g.maxY {
			g.maxY = ys[i]
		}
	}

	spanX := g.maxX - g.minX
	spanY := g.maxY - g.minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	g.dx = spanX / float64(bins)
	g.dy = spanY / float64(bins)
	g.size = spanX / (math.Sqrt(3) * float64(bins))
	return g, nil
}

// Extent returns the grid's coordinate bounds.
func (g *Grid) Extent() (minX, maxX, minY, maxY float64) {
	return g.minX, g.maxX, g.minY, g.maxY
}

// Assign maps a point to exactly one bin.
func (g *Grid) Assign(x, y float64) BinID {
	if g.Kind == HexGrid {
		return g.assignHex(x, y)
	}
	q := int((x - g.minX) / g.dx)
	r := int((y - g.minY) / g.dy)
	// The max edge belongs to the last bin.
	if q >= g.Bins {
		q = g.Bins - 1
	}
	if r >= g.Bins {
		r = g.Bins - 1
	}
	if q < 0 {
		q = 0
	}
	if r < 0 {
		r = 0
	}
	return BinID{Q: q, R: r}
}

// assignHex converts to axial hex coordinates (pointy-top) and rounds in
// cube space.
func (g *Grid) assignHex(x, y float64) BinID {
	px := x - g.minX
	py := y - g.minY
	qf := (math.Sqrt(3)/3*px - py/3) / g.size
	rf := (2.0 / 3.0 * py) / g.size
	q, r := cubeRound(qf, rf)
	return BinID{Q: q, R: r}
}

// Center returns the plane coordinates of a bin's center.
func (g *Grid) Center(id BinID) (float64, float64) {
	if g.Kind == HexGrid {
		x := g.size * (math.Sqrt(3)*float64(id.Q) + math.Sqrt(3)/2*float64(id.R))
		y := g.size * 1.5 * float64(id.R)
		return g.minX + x, g.minY + y
	}
	return g.minX + (float64(id.Q)+0.5)*g.dx, g.minY + (float64(id.R)+0.5)*g.dy
}

// CellRadius returns the drawing radius of one bin.
func (g *Grid) CellRadius() float64 {
	if g.Kind == HexGrid {
		return g.size
	}
	if g.dx < g.dy {
		return g.dx / 2
	}
	return g.dy / 2
}

func cubeRound(qf, rf float64) (int, int) {
	sf := -qf - rf
	q := math.Round(qf)
	r := math.Round(rf)
	s := math.Round(sf)

	dq := math.Abs(q - qf)
	dr := math.Abs(r - rf)
	ds := math.Abs(s - sf)

	if dq > dr && dq > ds {
		q = -r - s
	} else if dr > ds {
		r = -q - s
	}
	return int(q), int(r)
}

// BinSummary is one occupied bin's aggregate. Count (the density) is
// always populated; Value or Level/Share carry the optional target
// summary per the target column's type.
type BinSummary struct {
	Bin   BinID
	X     float64
	Y     float64
	Count int
	// HasValue marks Value as a real continuous summary; a zero Value
	// with HasValue unset just means no target was requested.
	HasValue bool
	Value    float64
	Level    string
	Share    float64
}

// Summarize assigns each point to its bin and aggregates. target may be
// nil for a pure density summary. Occupied bins are emitted in first-seen
// point order, which follows container observation order.
func (g *Grid) Summarize(xs, ys []float64, target *plotdata.Column, reg *Registry, summary string) ([]BinSummary, error) {
	if len(xs) != len(ys) {
		return nil, &container.ShapeMismatchError{What: "bin coordinates", Got: len(ys), Want: len(xs)}
	}
	if target != nil && target.Len() != len(xs) {
		return nil, &container.ShapeMismatchError{What: "bin target " + target.Name, Got: target.Len(), Want: len(xs)}
	}

	var fn Reduction
	if target != nil && target.Kind == container.Numeric {
		var err error
		fn, err = reg.Get(summary)
		if err != nil {
			return nil, err
		}
	}

	var order []BinID
	members := make(map[BinID][]int, 64)
	for i := range xs {
		id := g.Assign(xs[i], ys[i])
		if _, ok := members[id]; !ok {
			order = append(order, id)
		}
		members[id] = append(members[id], i)
	}

	out := make([]BinSummary, 0, len(order))
	for _, id := range order {
		idx := members[id]
		cx, cy := g.Center(id)
		bs := BinSummary{Bin: id, X: cx, Y: cy, Count: len(idx)}

		if target != nil {
			if target.Kind == container.Categorical {
				vals := make([]string, len(idx))
				for i, j := range idx {
					vals[i] = target.Levels[j]
				}
				bs.Level, bs.Share = modeWithShare(vals)
			} else {
				vals := make([]float64, len(idx))
				for i, j := range idx {
					vals[i] = target.Floats[j]
				}
				bs.Value = fn(vals)
				bs.HasValue = true
			}
		}
		out = append(out, bs)
	}
	return out, nil
}
