package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"
)

// Compose tiles panel images into one raster, row-major with cols
// panels per row. cols <= 0 picks a near-square layout. Panels keep
// their native sizes; the grid cell is the largest panel.
func Compose(panels [][]byte, cols int) ([]byte, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to compose")
	}
	if len(panels) == 1 {
		return panels[0], nil
	}
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(panels)))))
	}

	images := make([]image.Image, len(panels))
	cellW, cellH := 0, 0
	for i, data := range panels {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i, err)
		}
		images[i] = img
		if w := img.Bounds().Dx(); w > cellW {
			cellW = w
		}
		if h := img.Bounds().Dy(); h > cellH {
			cellH = h
		}
	}

	rows := (len(images) + cols - 1) / cols
	dc := gg.NewContext(cellW*cols, cellH*rows)
	dc.SetColor(color.White)
	dc.Clear()
	for i, img := range images {
		x := (i % cols) * cellW
		y := (i / cols) * cellH
		dc.DrawImage(img, x, y)
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
