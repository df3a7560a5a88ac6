// Package palette provides deterministic color assignment for discrete
// levels and interpolated colormaps for continuous values.
package palette

import (
	"fmt"
	"image/color"
)

// Base is the default ordered palette of colorblind-distinguishable
// colors used for discrete levels.
var Base = []string{
	"#E69F00", "#56B4E9", "#009E73", "#F0E442",
	"#0072B2", "#D55E00", "#CC79A7", "#666666",
	"#AD7700", "#1C91D4", "#007756", "#D5C711",
	"#005685", "#A04700", "#B14380", "#4D4D4D",
	"#FFBE2D", "#80C7EF", "#00F6B3", "#F4EB71",
	"#06A5FF", "#FF8320", "#D99BBD", "#8C8C8C",
}

// LegendScale is the fixed multiplier applied to legend symbol size
// relative to data-point size, so legends stay readable regardless of
// the user-chosen point size.
const LegendScale = 2.5

// overflow lightness shifts, applied cycle by cycle once the base
// palette is exhausted: first a lighter pass over the whole palette,
// then a darker one, then stronger variants of each.
var overflowShifts = []float64{0.25, -0.25, 0.5, -0.5}

// Options adjusts how discrete colors are assigned.
type Options struct {
	// Reorder permutes which indices into the palette are used, without
	// otherwise changing level-to-color binding. Entries are indices
	// into the (possibly overridden) palette.
	Reorder []int
	// Override fully replaces the default palette; it is consumed in
	// the same index order as the declared level order.
	Override []string
}

// Colors returns n hex colors drawn deterministically from the palette.
// When n exceeds the palette length, additional colors are derived by
// lightness perturbation of the base entries in a fixed cycle order, so
// repeated runs always produce identical colors.
func Colors(n int, opts Options) ([]string, error) {
	base := Base
	if len(opts.Override) > 0 {
		base = opts.Override
	}

	if len(opts.Reorder) > 0 {
		reordered := make([]string, 0, len(opts.Reorder))
		for _, idx := range opts.Reorder {
			if idx < 0 || idx >= len(base) {
				return nil, fmt.Errorf("color reorder index out of range: %d (palette size %d)", idx, len(base))
			}
			reordered = append(reordered, base[idx])
		}
		base = reordered
	}
	if len(base) == 0 {
		return nil, fmt.Errorf("empty palette")
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		cycle := i / len(base)
		pos := i % len(base)
		if cycle == 0 {
			out[i] = base[pos]
			continue
		}
		shift := overflowShifts[(cycle-1)%len(overflowShifts)]
		out[i] = shiftLightness(base[pos], shift)
	}
	return out, nil
}

// Assign binds each level, in the given order, to a color.
func Assign(levels []string, opts Options) (map[string]string, error) {
	colors, err := Colors(len(levels), opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(levels))
	for i, lvl := range levels {
		out[lvl] = colors[i]
	}
	return out, nil
}

// Lighten moves a hex color toward white by fraction f.
func Lighten(hex string, f float64) string {
	return shiftLightness(hex, f)
}

// Darken moves a hex color toward black by fraction f.
func Darken(hex string, f float64) string {
	return shiftLightness(hex, -f)
}

// shiftLightness moves each channel toward white (f > 0) or black
// (f < 0) by |f|.
func shiftLightness(hex string, f float64) string {
	c := ParseHex(hex)
	shift := func(v uint8) uint8 {
		x := float64(v)
		if f > 0 {
			x += (255 - x) * f
		} else {
			x *= 1 + f
		}
		if x < 0 {
			x = 0
		}
		if x > 255 {
			x = 255
		}
		return uint8(x + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", shift(c.R), shift(c.G), shift(c.B))
}

// ParseHex converts "#RRGGBB" to an opaque RGBA color. Malformed input
// yields opaque black rather than an error; palette entries are
// programmer-controlled constants.
func ParseHex(hex string) color.RGBA {
	var r, g, b uint8
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
