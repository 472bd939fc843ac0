// Package domain derives axis ranges and display mode from a spectrum state.
// Everything here is a pure function of its inputs.
package domain

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nmr/nmr/datum"
)

// Axis is a set of axes.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ

	AxisNone Axis = 0
)

// Has reports whether a contains all axes of b.
func (a Axis) Has(b Axis) bool { return a&b == b }

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Domain holds the ranges of the active axes. For 1D data Y is the
// intensity range; for 2D data Y is the indirect axis and Z the intensity.
type Domain struct {
	X Range `json:"x" yaml:"x"`
	Y Range `json:"y" yaml:"y"`
	Z Range `json:"z,omitempty" yaml:"z,omitempty"`
	// Changed lists the axes whose range differs from the previous domain.
	Changed Axis `json:"changed" yaml:"changed"`
}

// Compute recalculates the domain of s. Axes in freeze keep their range from
// prev and are never reported as changed.
func Compute(prev Domain, s *datum.State, freeze Axis) Domain {
	next := Domain{}
	switch {
	case s.Is2D() && s.Data.Matrix != nil:
		m := s.Data.Matrix
		next.X = Range{Min: m.MinX, Max: m.MaxX}
		next.Y = Range{Min: m.MinY, Max: m.MaxY}
		next.Z = matrixRange(m.Z)
	default:
		next.X = rangeOf(s.Data.X)
		next.Y = rangeOf(s.Data.Re)
	}

	if freeze.Has(AxisX) {
		next.X = prev.X
	}
	if freeze.Has(AxisY) {
		next.Y = prev.Y
	}
	if freeze.Has(AxisZ) {
		next.Z = prev.Z
	}

	if next.X != prev.X {
		next.Changed |= AxisX
	}
	if next.Y != prev.Y {
		next.Changed |= AxisY
	}
	if next.Z != prev.Z {
		next.Changed |= AxisZ
	}
	return next
}

func rangeOf(v []float64) Range {
	if len(v) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(v), Max: floats.Max(v)}
}

func matrixRange(z [][]float64) Range {
	var (
		r     Range
		first = true
	)
	for _, row := range z {
		if len(row) == 0 {
			continue
		}
		rr := rangeOf(row)
		if first {
			r, first = rr, false
			continue
		}
		r.Min = min(r.Min, rr.Min)
		r.Max = max(r.Max, rr.Max)
	}
	return r
}
