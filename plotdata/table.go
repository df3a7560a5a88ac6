// Package plotdata builds tidy per-observation tables from container
// lookups. A table is the hand-off unit between the accessor, the
// summarization stage, and the rendering delegate: one row per retained
// observation, one column per requested variable, plus the grouping
// columns induced by a split specification.
package plotdata

import (
	"github.com/atlasmap-sc/cellplot/container"
)

// Column is one variable of a tidy table, aligned to the table's row
// order. Exactly one of Floats/Levels is populated, per Kind.
type Column struct {
	Name   string
	Kind   container.ColumnKind
	Floats []float64
	Levels []string
}

// Len returns the column's row count.
func (c Column) Len() int {
	if c.Kind == container.Categorical {
		return len(c.Levels)
	}
	return len(c.Floats)
}

// AsNumeric returns the column's float values, failing with
// TypeMismatchError when the column is categorical. There is no silent
// coercion of categorical data.
func (c Column) AsNumeric() ([]float64, error) {
	if c.Kind != container.Numeric {
		return nil, &container.TypeMismatchError{Name: c.Name, Got: c.Kind, Want: container.Numeric}
	}
	return c.Floats, nil
}

// AsDiscrete returns the column's level values, failing with
// TypeMismatchError when the column is numeric.
func (c Column) AsDiscrete() ([]string, error) {
	if c.Kind != container.Categorical {
		return nil, &container.TypeMismatchError{Name: c.Name, Got: c.Kind, Want: container.Categorical}
	}
	return c.Levels, nil
}

// UniqueLevels returns the distinct levels of a categorical column in
// first-seen row order. This ordering feeds both color assignment and
// facet enumeration, so it must stay deterministic.
func (c Column) UniqueLevels() []string {
	seen := make(map[string]struct{}, 8)
	var out []string
	for _, v := range c.Levels {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Table is the tidy result of one extraction run.
type Table struct {
	// Obs holds the retained observation identifiers in original
	// container order.
	Obs []string
	// Columns holds one column per requested variable, request order.
	Columns []Column
	// Split holds the grouping columns induced by a split
	// specification, in split order.
	Split []Column
}

// NRows returns the table's row count.
func (t *Table) NRows() int {
	return len(t.Obs)
}

// Column returns the named variable column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range t.Split {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
