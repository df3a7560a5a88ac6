package plotdata

import (
	"sort"
	"strconv"

	"github.com/atlasmap-sc/cellplot/container"
)

// Selection is the normalized internal form of a cells_use filter:
// container-order observation indices, ascending. The three accepted
// caller forms (identifier list, index list, boolean mask) all normalize
// to this one representation.
type Selection struct {
	idx []int
	all bool
}

// All selects every observation of the container.
func All(c *container.Container) Selection {
	idx := make([]int, c.NObs())
	for i := range idx {
		idx[i] = i
	}
	return Selection{idx: idx, all: true}
}

// Indices returns the selected container-order indices. Callers must not
// mutate the result.
func (s Selection) Indices() []int {
	return s.idx
}

// Len returns the number of selected observations.
func (s Selection) Len() int {
	return len(s.idx)
}

// IsAll reports whether the selection covers the whole container.
func (s Selection) IsAll() bool {
	return s.all
}

// SelectIDs builds a selection from explicit observation identifiers.
// Unknown identifiers fail with NotFoundError. Row order of any table
// built from the selection is container order, not request order.
func SelectIDs(c *container.Container, ids []string) (Selection, error) {
	idx := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := c.ObservationIndex(id)
		if !ok {
			return Selection{}, &container.NotFoundError{Kind: "observation", Name: id}
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return Selection{idx: idx, all: len(idx) == c.NObs()}, nil
}

// SelectIndices builds a selection from container-order index positions.
func SelectIndices(c *container.Container, indices []int) (Selection, error) {
	idx := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= c.NObs() {
			return Selection{}, &container.NotFoundError{
				Kind: "observation index",
				Name: strconv.Itoa(i),
			}
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return Selection{idx: idx, all: len(idx) == c.NObs()}, nil
}

// SelectMask builds a selection from a boolean mask over the full
// observation set. A mask of any other length fails with
// ShapeMismatchError.
func SelectMask(c *container.Container, mask []bool) (Selection, error) {
	if len(mask) != c.NObs() {
		return Selection{}, &container.ShapeMismatchError{
			What: "cells_use mask",
			Got:  len(mask),
			Want: c.NObs(),
		}
	}
	idx := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			idx = append(idx, i)
		}
	}
	return Selection{idx: idx, all: len(idx) == c.NObs()}, nil
}

// Refine applies a further boolean mask to an existing selection. The
// mask is over the selection's rows, not the full container.
func (s Selection) Refine(mask []bool) (Selection, error) {
	if len(mask) != len(s.idx) {
		return Selection{}, &container.ShapeMismatchError{
			What: "selection refinement mask",
			Got:  len(mask),
			Want: len(s.idx),
		}
	}
	idx := make([]int, 0, len(s.idx))
	for i, keep := range mask {
		if keep {
			idx = append(idx, s.idx[i])
		}
	}
	return Selection{idx: idx}, nil
}
