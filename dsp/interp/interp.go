package interp

import (
	"errors"
	"fmt"

	gonuminterp "gonum.org/v1/gonum/interp"
)

var (
	// ErrEmptyInput is returned when x or y is empty.
	ErrEmptyInput = errors.New("interp: empty input")
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("interp: x/y length mismatch")
	// ErrNotMonotonic is returned when x is not strictly monotonic.
	ErrNotMonotonic = errors.New("interp: x must be strictly monotonic")
)

// Linear resamples y(x) at each query point. x may be strictly increasing
// or strictly decreasing. Query points outside the range of x take the
// nearest edge value.
func Linear(x, y, queryX []float64) ([]float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, ErrEmptyInput
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(x), len(y))
	}

	out := make([]float64, len(queryX))
	if len(x) == 1 {
		for i := range out {
			out[i] = y[0]
		}
		return out, nil
	}

	if x[1] < x[0] {
		x = reversed(x)
		y = reversed(y)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return nil, fmt.Errorf("%w: index %d", ErrNotMonotonic, i)
		}
	}

	var pl gonuminterp.PiecewiseLinear
	if err := pl.Fit(x, y); err != nil {
		return nil, fmt.Errorf("interp: %w", err)
	}
	for i, q := range queryX {
		out[i] = pl.Predict(q)
	}
	return out, nil
}

// Grid returns n evenly spaced points from `from` to `to` inclusive.
// n == 1 yields a single point at from.
func Grid(from, to float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = from
		return out
	}
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	out[n-1] = to
	return out
}

func reversed(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
