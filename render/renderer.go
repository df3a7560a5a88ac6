// Package render turns tidy tables into raster plot artifacts. The
// Renderer interface is the delegate contract every pipeline entry point
// hands off to; Scatter is the default gg-backed implementation.
package render

import (
	"github.com/atlasmap-sc/cellplot/pkg/palette"
	"github.com/atlasmap-sc/cellplot/plotdata"
	"github.com/atlasmap-sc/cellplot/summarize"
)

// Params is the styling configuration of one render call.
type Params struct {
	Title  string
	XLabel string
	YLabel string

	// XVar/YVar name the numeric table columns plotted on the axes.
	// When empty, coordinates are supplied out-of-band via Points.
	XVar string
	YVar string
	// ColorVar names the table column driving point color; discrete
	// columns go through the palette, numeric ones through Colormap.
	ColorVar string

	PointSize float64
	Colormap  string
	Palette   palette.Options

	// Raster scales the output raster; 1 renders at the configured
	// canvas size.
	RasterScale float64

	LegendTitle string
	HideLegend  bool
}

// Renderer is the outbound delegate contract: one tidy table plus
// styling in, one renderable artifact out. Implementations may hold
// global styling state and are not assumed safe for concurrent calls;
// every call is a scoped one-shot interaction.
type Renderer interface {
	Render(tbl *plotdata.Table, xs, ys []float64, p Params) ([]byte, error)
	RenderBins(grid *summarize.Grid, bins []summarize.BinSummary, p Params) ([]byte, error)
}
