// Package density estimates a smooth probability mass over a numeric range
// from observed values and samples from it.
package density

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// DefaultGridSize is the number of evaluation points used when none is given.
const DefaultGridSize = 1000

// ErrDistributionFit is returned when no density can be fitted to a sample.
var ErrDistributionFit = errors.New("density: cannot fit distribution")

// Grid is a discrete probability mass over evaluation points.
type Grid struct {
	Points        []float64
	Probabilities []float64

	weights *Weighted
}

// NewGrid validates a persisted grid and prepares it for sampling.
func NewGrid(points, probabilities []float64) (*Grid, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrDistributionFit)
	}
	if len(points) != len(probabilities) {
		return nil, fmt.Errorf("%w: %d points but %d probabilities", ErrDistributionFit, len(points), len(probabilities))
	}
	w, err := NewWeighted(probabilities)
	if err != nil {
		return nil, err
	}
	return &Grid{Points: points, Probabilities: w.Probabilities(), weights: w}, nil
}

// Fit estimates a Gaussian kernel density with Scott's bandwidth and evaluates
// it on gridSize evenly spaced points between the sample minimum and maximum.
// A sample with a single distinct value collapses to a one-point grid.
func Fit(values []float64, gridSize int) (*Grid, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrDistributionFit)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value %v", ErrDistributionFit, v)
		}
	}
	if gridSize <= 1 {
		gridSize = DefaultGridSize
	}

	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	if lo == hi {
		return NewGrid([]float64{lo}, []float64{1})
	}

	sd, err := stats.StandardDeviationSample(values)
	if err != nil || sd == 0 {
		return nil, fmt.Errorf("%w: zero variance", ErrDistributionFit)
	}
	bandwidth := sd * math.Pow(float64(len(values)), -0.2)

	points := make([]float64, gridSize)
	mass := make([]float64, gridSize)
	step := (hi - lo) / float64(gridSize-1)
	for i := range points {
		x := lo + float64(i)*step
		if i == gridSize-1 {
			x = hi
		}
		points[i] = x
		for _, v := range values {
			z := (x - v) / bandwidth
			mass[i] += math.Exp(-0.5 * z * z)
		}
	}
	return NewGrid(points, mass)
}

// Singular reports whether the grid holds a single point.
func (g *Grid) Singular() bool {
	return len(g.Points) == 1
}

// Sample draws one value. A singular grid at v draws uniformly from
// [0.5v, 1.5v].
func (g *Grid) Sample(r *rand.Rand) float64 {
	if g.Singular() {
		return Jitter(r, g.Points[0])
	}
	if g.weights == nil {
		g.weights, _ = NewWeighted(g.Probabilities)
	}
	return g.Points[g.weights.Pick(r)]
}

// Jitter draws uniformly between half and one and a half times v.
func Jitter(r *rand.Rand, v float64) float64 {
	lo, hi := 0.5*v, 1.5*v
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + r.Float64()*(hi-lo)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	rounded, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return rounded
}

// Precision counts the digits after the decimal point in the shortest
// representation of v.
func Precision(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return len(s) - idx - 1
	}
	return 0
}

// Weighted picks indexes proportionally to a list of weights.
type Weighted struct {
	probabilities []float64
	cumulative    []float64
}

// NewWeighted normalises weights to probabilities. Weights must be
// non-negative with a positive sum.
func NewWeighted(weights []float64) (*Weighted, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrDistributionFit)
	}
	total, err := stats.Sum(weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDistributionFit, err)
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrDistributionFit, total)
	}

	w := &Weighted{
		probabilities: make([]float64, len(weights)),
		cumulative:    make([]float64, len(weights)),
	}
	acc := 0.0
	for i, x := range weights {
		if x < 0 {
			return nil, fmt.Errorf("%w: negative weight %v", ErrDistributionFit, x)
		}
		w.probabilities[i] = x / total
		acc += w.probabilities[i]
		w.cumulative[i] = acc
	}
	return w, nil
}

// Probabilities returns the normalised weights.
func (w *Weighted) Probabilities() []float64 {
	return append([]float64(nil), w.probabilities...)
}

// Pick returns an index drawn with probability proportional to its weight.
func (w *Weighted) Pick(r *rand.Rand) int {
	u := r.Float64() * w.cumulative[len(w.cumulative)-1]
	i := sort.Search(len(w.cumulative), func(i int) bool { return w.cumulative[i] > u })
	if i >= len(w.cumulative) {
		i = len(w.cumulative) - 1
	}
	return i
}
