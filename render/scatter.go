package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/pkg/palette"
	"github.com/atlasmap-sc/cellplot/plotdata"
	"github.com/atlasmap-sc/cellplot/summarize"
)

// Config contains renderer configuration.
type Config struct {
	Width           int
	Height          int
	DefaultColormap string
	PointSize       float64
}

// margins in pixels around the data area
const (
	marginLeft   = 50.0
	marginRight  = 110.0
	marginTop    = 30.0
	marginBottom = 40.0
)

// Scatter renders embedding/scatter plots and binned density plots from
// tidy tables.
type Scatter struct {
	config     Config
	bufferPool sync.Pool
}

// NewScatter creates the default rendering delegate.
func NewScatter(cfg Config) *Scatter {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.DefaultColormap == "" {
		cfg.DefaultColormap = "viridis"
	}
	if cfg.PointSize <= 0 {
		cfg.PointSize = 2
	}
	return &Scatter{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// Render draws one scatter panel. Coordinates come either from the
// xs/ys vectors (embedding plots) or from numeric table columns named by
// p.XVar/p.YVar.
func (s *Scatter) Render(tbl *plotdata.Table, xs, ys []float64, p Params) ([]byte, error) {
	if p.XVar != "" {
		col, ok := tbl.Column(p.XVar)
		if !ok {
			return nil, &container.VariableNotFoundError{Name: p.XVar}
		}
		var err error
		if xs, err = col.AsNumeric(); err != nil {
			return nil, err
		}
	}
	if p.YVar != "" {
		col, ok := tbl.Column(p.YVar)
		if !ok {
			return nil, &container.VariableNotFoundError{Name: p.YVar}
		}
		var err error
		if ys, err = col.AsNumeric(); err != nil {
			return nil, err
		}
	}
	if len(xs) != len(ys) {
		return nil, &container.ShapeMismatchError{What: "render coordinates", Got: len(ys), Want: len(xs)}
	}
	if len(xs) != tbl.NRows() {
		return nil, &container.ShapeMismatchError{What: "render coordinates", Got: len(xs), Want: tbl.NRows()}
	}

	width, height := s.canvasSize(p)
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	area := s.plotArea(width, height)
	proj := newProjection(xs, ys, area)

	pointSize := p.PointSize
	if pointSize <= 0 {
		pointSize = s.config.PointSize
	}
	if p.RasterScale > 0 {
		pointSize *= p.RasterScale
	}

	var legend []legendItem
	if p.ColorVar != "" {
		col, ok := tbl.Column(p.ColorVar)
		if !ok {
			return nil, &container.VariableNotFoundError{Name: p.ColorVar}
		}
		if col.Kind == container.Categorical {
			levels := col.UniqueLevels()
			assigned, err := palette.Assign(levels, p.Palette)
			if err != nil {
				return nil, err
			}
			for i := range xs {
				dc.SetHexColor(assigned[col.Levels[i]])
				px, py := proj.at(xs[i], ys[i])
				dc.DrawCircle(px, py, pointSize)
				dc.Fill()
			}
			for _, lvl := range levels {
				legend = append(legend, legendItem{label: lvl, hex: assigned[lvl]})
			}
		} else {
			cmap := s.colormap(p.Colormap)
			lo, hi := extent(col.Floats)
			span := hi - lo
			if span == 0 {
				span = 1
			}
			for i := range xs {
				dc.SetColor(cmap.At((col.Floats[i] - lo) / span))
				px, py := proj.at(xs[i], ys[i])
				dc.DrawCircle(px, py, pointSize)
				dc.Fill()
			}
		}
	} else {
		dc.SetHexColor(palette.Base[0])
		for i := range xs {
			px, py := proj.at(xs[i], ys[i])
			dc.DrawCircle(px, py, pointSize)
			dc.Fill()
		}
	}

	s.drawFrame(dc, area, p)
	if len(legend) > 0 && !p.HideLegend {
		s.drawLegend(dc, area, legend, pointSize, p.LegendTitle)
	}

	return s.encode(dc)
}

// RenderBins draws one binned panel: hexagons for hex grids, squares for
// rect grids, colored by the bin summary value (or by density when no
// target summary is present).
func (s *Scatter) RenderBins(grid *summarize.Grid, bins []summarize.BinSummary, p Params) ([]byte, error) {
	width, height := s.canvasSize(p)
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	area := s.plotArea(width, height)
	minX, maxX, minY, maxY := grid.Extent()
	proj := newProjectionBounds(minX, maxX, minY, maxY, area)

	// Pixel radius of one bin cell.
	radius := proj.scaleX(grid.CellRadius())
	if r := proj.scaleY(grid.CellRadius()); r < radius {
		radius = r
	}
	if radius < 1 {
		radius = 1
	}

	discrete := false
	values := make([]float64, len(bins))
	for i, b := range bins {
		if b.Level != "" {
			discrete = true
			break
		}
		if b.HasValue {
			values[i] = b.Value
		} else {
			values[i] = float64(b.Count)
		}
	}

	if discrete {
		var levels []string
		seen := make(map[string]struct{})
		for _, b := range bins {
			if _, ok := seen[b.Level]; ok {
				continue
			}
			seen[b.Level] = struct{}{}
			levels = append(levels, b.Level)
		}
		assigned, err := palette.Assign(levels, p.Palette)
		if err != nil {
			return nil, err
		}
		for _, b := range bins {
			dc.SetHexColor(assigned[b.Level])
			s.fillCell(dc, grid, proj, b, radius)
		}
		if !p.HideLegend {
			items := make([]legendItem, 0, len(levels))
			for _, lvl := range levels {
				items = append(items, legendItem{label: lvl, hex: assigned[lvl]})
			}
			s.drawLegend(dc, area, items, radius, p.LegendTitle)
		}
	} else {
		cmap := s.colormap(p.Colormap)
		lo, hi := extent(values)
		span := hi - lo
		if span == 0 {
			span = 1
		}
		for i, b := range bins {
			dc.SetColor(cmap.At((values[i] - lo) / span))
			s.fillCell(dc, grid, proj, b, radius)
		}
	}

	s.drawFrame(dc, area, p)
	return s.encode(dc)
}

func (s *Scatter) fillCell(dc *gg.Context, grid *summarize.Grid, proj projection, b summarize.BinSummary, radius float64) {
	px, py := proj.at(b.X, b.Y)
	if grid.Kind == summarize.HexGrid {
		dc.DrawRegularPolygon(6, px, py, radius, math.Pi/6)
	} else {
		dc.DrawRectangle(px-radius, py-radius, 2*radius, 2*radius)
	}
	dc.Fill()
}

func (s *Scatter) canvasSize(p Params) (int, int) {
	w, h := s.config.Width, s.config.Height
	if p.RasterScale > 0 {
		w = int(float64(w) * p.RasterScale)
		h = int(float64(h) * p.RasterScale)
	}
	return w, h
}

type rect struct {
	x0, y0, x1, y1 float64
}

func (s *Scatter) plotArea(width, height int) rect {
	return rect{
		x0: marginLeft,
		y0: marginTop,
		x1: float64(width) - marginRight,
		y1: float64(height) - marginBottom,
	}
}

// projection maps data coordinates to pixel coordinates with a small
// padding and a flipped y axis (plot y grows upward).
type projection struct {
	minX, minY   float64
	spanX, spanY float64
	area         rect
}

func newProjection(xs, ys []float64, area rect) projection {
	minX, maxX := extent(xs)
	minY, maxY := extent(ys)
	return newProjectionBounds(minX, maxX, minY, maxY, area)
}

func newProjectionBounds(minX, maxX, minY, maxY float64, area rect) projection {
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	// 5% padding keeps edge points off the frame.
	minX -= spanX * 0.05
	minY -= spanY * 0.05
	spanX *= 1.1
	spanY *= 1.1
	return projection{minX: minX, minY: minY, spanX: spanX, spanY: spanY, area: area}
}

func (p projection) at(x, y float64) (float64, float64) {
	px := p.area.x0 + (x-p.minX)/p.spanX*(p.area.x1-p.area.x0)
	py := p.area.y1 - (y-p.minY)/p.spanY*(p.area.y1-p.area.y0)
	return px, py
}

func (p projection) scaleX(d float64) float64 {
	return d / p.spanX * (p.area.x1 - p.area.x0)
}

func (p projection) scaleY(d float64) float64 {
	return d / p.spanY * (p.area.y1 - p.area.y0)
}

func (s *Scatter) drawFrame(dc *gg.Context, area rect, p Params) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawRectangle(area.x0, area.y0, area.x1-area.x0, area.y1-area.y0)
	dc.Stroke()

	if p.Title != "" {
		dc.DrawStringAnchored(p.Title, (area.x0+area.x1)/2, area.y0/2, 0.5, 0.5)
	}
	if p.XLabel != "" {
		dc.DrawStringAnchored(p.XLabel, (area.x0+area.x1)/2, area.y1+marginBottom/2, 0.5, 0.5)
	}
	if p.YLabel != "" {
		dc.Push()
		dc.RotateAbout(-math.Pi/2, marginLeft/2, (area.y0+area.y1)/2)
		dc.DrawStringAnchored(p.YLabel, marginLeft/2, (area.y0+area.y1)/2, 0.5, 0.5)
		dc.Pop()
	}
}

type legendItem struct {
	label string
	hex   string
}

// drawLegend draws discrete legend entries to the right of the plot
// area. Symbols are enlarged by the fixed palette.LegendScale multiplier
// relative to data-point size.
func (s *Scatter) drawLegend(dc *gg.Context, area rect, items []legendItem, pointSize float64, title string) {
	symbol := pointSize * palette.LegendScale
	if symbol < 3 {
		symbol = 3
	}
	x := area.x1 + 15
	y := area.y0 + 10
	step := symbol*2 + 8

	if title != "" {
		dc.SetColor(color.Black)
		dc.DrawString(title, x, y)
		y += step
	}
	for _, it := range items {
		dc.SetHexColor(it.hex)
		dc.DrawCircle(x+symbol, y, symbol)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawString(it.label, x+symbol*2+6, y+symbol/2)
		y += step
	}
}

func (s *Scatter) encode(dc *gg.Context) ([]byte, error) {
	buf := s.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		s.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (s *Scatter) colormap(name string) palette.Colormap {
	if cm, ok := palette.Colormaps[name]; ok {
		return cm
	}
	return palette.Colormaps[s.config.DefaultColormap]
}

func extent(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
