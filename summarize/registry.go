// Package summarize aggregates tidy-table columns into per-group or
// per-spatial-bin summary values. Continuous columns go through a named
// reduction registry; categorical columns go through the mode/mode-share
// regime with a deterministic first-seen tie-break.
package summarize

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Reduction collapses a numeric sequence to a single value.
type Reduction func(values []float64) float64

// UnknownSummaryError reports a summary name absent from the registry.
type UnknownSummaryError struct {
	Name  string
	Known []string
}

func (e *UnknownSummaryError) Error() string {
	return fmt.Sprintf("unknown summary %q (registered: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry maps summary names to reductions. Lookups are validated at
// call time with a closed error instead of failing deep inside a
// rendering pass.
type Registry struct {
	fns   map[string]Reduction
	order []string
}

// NewRegistry returns a registry preloaded with the built-in reductions:
// mean, median, sum, sd, mad.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]Reduction)}
	r.Register("mean", Mean)
	r.Register("median", Median)
	r.Register("sum", Sum)
	r.Register("sd", SD)
	r.Register("mad", MAD)
	return r
}

// Register adds or replaces a named reduction.
func (r *Registry) Register(name string, fn Reduction) {
	if _, exists := r.fns[name]; !exists {
		r.order = append(r.order, name)
	}
	r.fns[name] = fn
}

// Names returns registered summary names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the named reduction, failing with UnknownSummaryError for
// unregistered names.
func (r *Registry) Get(name string) (Reduction, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, &UnknownSummaryError{Name: name, Known: r.Names()}
	}
	return fn, nil
}

// Mean returns the arithmetic mean, NaN for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value (average of the two middle values for
// even lengths), NaN for an empty input.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Sum returns the total.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// SD returns the sample standard deviation (n-1 denominator), NaN for
// fewer than two values.
func SD(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// madScale makes the MAD consistent with the standard deviation for
// normally distributed data.
const madScale = 1.4826

// MAD returns the scaled median absolute deviation, NaN for an empty
// input.
func MAD(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	med := Median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	return madScale * Median(dev)
}
