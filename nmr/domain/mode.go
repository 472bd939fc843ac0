package domain

import (
	"fmt"

	"github.com/cwbudde/algo-nmr/nmr/datum"
)

// Components selects which channels are displayed.
type Components int

const (
	Real Components = iota
	RealImaginary
)

func (c Components) String() string {
	switch c {
	case Real:
		return "real"
	case RealImaginary:
		return "real+imaginary"
	default:
		return fmt.Sprintf("Components(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Components) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Direction is the x axis orientation. FIDs run left to right; frequency
// spectra are shown with ppm decreasing to the right.
type Direction int

const (
	LTR Direction = iota
	RTL
)

func (d Direction) String() string {
	if d == RTL {
		return "RTL"
	}
	return "LTR"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Mode is the display mode of a spectrum.
type Mode struct {
	Components Components `json:"components" yaml:"components"`
	Direction  Direction  `json:"direction" yaml:"direction"`
}

// ModeOf derives the display mode of s. A transform of a complex FID keeps
// both channels; an absolute value phase correction leaves only the real
// one.
func ModeOf(s *datum.State) Mode {
	m := Mode{Components: Real, Direction: RTL}
	if s.Is1D() && s.Info.IsComplex && s.HasImaginary() {
		m.Components = RealImaginary
	}
	if s.Info.IsFid {
		m.Direction = LTR
	}
	return m
}
