package palette

import (
	"testing"
)

func TestColorsWithinBase(t *testing.T) {
	colors, err := Colors(5, Options{})
	if err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	for i := range colors {
		if colors[i] != Base[i] {
			t.Errorf("color %d = %s, want %s", i, colors[i], Base[i])
		}
	}
}

func TestPaletteOverflowDeterministic(t *testing.T) {
	// 30 levels against the 24-color base palette: the 25th level gets a
	// derived lightness-shifted color, identical across runs.
	first, err := Colors(30, Options{})
	if err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	if len(first) != 30 {
		t.Fatalf("color count = %d, want 30", len(first))
	}

	overflow := first[24]
	if overflow == Base[0] {
		t.Errorf("overflow color should differ from its base entry")
	}
	if overflow != Lighten(Base[0], 0.25) {
		t.Errorf("25th color = %s, want lightened %s", overflow, Base[0])
	}

	for run := 0; run < 5; run++ {
		again, err := Colors(30, Options{})
		if err != nil {
			t.Fatalf("Colors failed: %v", err)
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: color %d changed: %s != %s", run, i, again[i], first[i])
			}
		}
	}
}

func TestOverflowCycles(t *testing.T) {
	n := len(Base)
	colors, err := Colors(n*3, Options{})
	if err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	// Second cycle is lighter, third darker.
	if colors[n] != Lighten(Base[0], 0.25) {
		t.Errorf("cycle 1 should lighten: %s", colors[n])
	}
	if colors[2*n] != Darken(Base[0], 0.25) {
		t.Errorf("cycle 2 should darken: %s", colors[2*n])
	}
}

func TestReorderPermutesIndices(t *testing.T) {
	colors, err := Colors(3, Options{Reorder: []int{2, 0, 1}})
	if err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	if colors[0] != Base[2] || colors[1] != Base[0] || colors[2] != Base[1] {
		t.Errorf("reorder not honored: %v", colors)
	}

	if _, err := Colors(1, Options{Reorder: []int{99}}); err == nil {
		t.Errorf("expected error for out-of-range reorder index")
	}
}

func TestOverrideReplacesPalette(t *testing.T) {
	override := []string{"#112233", "#445566"}
	colors, err := Colors(3, Options{Override: override})
	if err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	if colors[0] != "#112233" || colors[1] != "#445566" {
		t.Errorf("override not consumed in index order: %v", colors)
	}
	// Overflow derives from the override, not the default base.
	if colors[2] != Lighten("#112233", 0.25) {
		t.Errorf("override overflow = %s", colors[2])
	}
}

func TestAssignBindsLevelOrder(t *testing.T) {
	m, err := Assign([]string{"B", "A"}, Options{})
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if m["B"] != Base[0] || m["A"] != Base[1] {
		t.Errorf("levels should bind in declared order: %v", m)
	}
}

func TestLightenDarkenBounds(t *testing.T) {
	if Lighten("#FFFFFF", 0.5) != "#FFFFFF" {
		t.Errorf("lightening white should stay white")
	}
	if Darken("#000000", 0.5) != "#000000" {
		t.Errorf("darkening black should stay black")
	}
	c := ParseHex("#E69F00")
	if c.R != 0xE6 || c.G != 0x9F || c.B != 0x00 || c.A != 255 {
		t.Errorf("ParseHex wrong: %+v", c)
	}
}

func TestColormapEndpoints(t *testing.T) {
	lo := Viridis.At(0)
	hi := Viridis.At(1)
	r1, g1, b1, _ := lo.RGBA()
	r2, g2, b2, _ := hi.RGBA()
	if r1 == r2 && g1 == g2 && b1 == b2 {
		t.Errorf("colormap endpoints should differ")
	}
}
