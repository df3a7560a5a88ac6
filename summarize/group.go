package summarize

import (
	"github.com/atlasmap-sc/cellplot/container"
	"github.com/atlasmap-sc/cellplot/plotdata"
)

// GroupSummary is one group's aggregate of a target column. For a
// continuous target Value is populated; for a discrete target Level and
// Share are.
type GroupSummary struct {
	Group string
	N     int
	Value float64
	Level string
	Share float64
}

// ContinuousBy applies a registered reduction to a numeric target within
// each group. Groups are emitted in first-seen order over the input.
func ContinuousBy(values []float64, groups []string, reg *Registry, summary string) ([]GroupSummary, error) {
	fn, err := reg.Get(summary)
	if err != nil {
		return nil, err
	}
	if len(values) != len(groups) {
		return nil, &container.ShapeMismatchError{What: "group labels", Got: len(groups), Want: len(values)}
	}

	order, byGroup := partition(groups)
	out := make([]GroupSummary, 0, len(order))
	for _, g := range order {
		idx := byGroup[g]
		vals := make([]float64, len(idx))
		for i, j := range idx {
			vals[i] = values[j]
		}
		out = append(out, GroupSummary{Group: g, N: len(idx), Value: fn(vals)})
	}
	return out, nil
}

// DiscreteBy computes the mode and mode share of a categorical target
// within each group, groups in first-seen order.
func DiscreteBy(values []string, groups []string) ([]GroupSummary, error) {
	if len(values) != len(groups) {
		return nil, &container.ShapeMismatchError{What: "group labels", Got: len(groups), Want: len(values)}
	}

	order, byGroup := partition(groups)
	out := make([]GroupSummary, 0, len(order))
	for _, g := range order {
		idx := byGroup[g]
		vals := make([]string, len(idx))
		for i, j := range idx {
			vals[i] = values[j]
		}
		level, share := modeWithShare(vals)
		out = append(out, GroupSummary{Group: g, N: len(idx), Level: level, Share: share})
	}
	return out, nil
}

// ColumnBy dispatches on the target column's declared type: numeric
// targets go through the named continuous reduction, categorical targets
// through the mode regime (the summary name selects "mode" vs
// "mode_share" semantics via GroupSummary fields either way).
func ColumnBy(target plotdata.Column, groups []string, reg *Registry, summary string) ([]GroupSummary, error) {
	if target.Kind == container.Categorical {
		return DiscreteBy(target.Levels, groups)
	}
	return ContinuousBy(target.Floats, groups, reg, summary)
}

// partition indexes rows by group label, preserving first-seen group
// order and input row order within each group.
func partition(groups []string) ([]string, map[string][]int) {
	var order []string
	byGroup := make(map[string][]int, 8)
	for i, g := range groups {
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], i)
	}
	return order, byGroup
}
