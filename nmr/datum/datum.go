package datum

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// ErrInvalidState is returned when buffers are inconsistent.
var ErrInvalidState = errors.New("datum: invalid state")

// Info carries acquisition metadata and flags maintained by filters.
type Info struct {
	Dimension int    `json:"dimension" yaml:"dimension"`
	Nucleus   string `json:"nucleus,omitempty" yaml:"nucleus,omitempty"`
	IsFid     bool   `json:"isFid" yaml:"isFid"`
	IsComplex bool   `json:"isComplex" yaml:"isComplex"`
	// SpectrometerFrequency in MHz, used to convert Hz to ppm.
	SpectrometerFrequency float64 `json:"spectrometerFrequency,omitempty" yaml:"spectrometerFrequency,omitempty"`
	// Offset is the ppm value at the centre of the transformed spectrum.
	Offset float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	// GroupDelay is the digital filter delay in points reported by the
	// acquisition. It is consumed by the digitalFilter and fft kinds.
	GroupDelay float64 `json:"groupDelay,omitempty" yaml:"groupDelay,omitempty"`

	// PendingGroupDelay is the residual delay still to be removed by a
	// first order phase term after the transform.
	PendingGroupDelay float64 `json:"pendingGroupDelay,omitempty" yaml:"pendingGroupDelay,omitempty"`
	// DigitalFilterApplied is set once the group delay has been handled.
	DigitalFilterApplied bool `json:"digitalFilterApplied,omitempty" yaml:"digitalFilterApplied,omitempty"`
}

// Matrix is a 2D intensity grid with axis bounds. Rows run along y.
type Matrix struct {
	Z    [][]float64 `json:"z" yaml:"z"`
	MinX float64     `json:"minX" yaml:"minX"`
	MaxX float64     `json:"maxX" yaml:"maxX"`
	MinY float64     `json:"minY" yaml:"minY"`
	MaxY float64     `json:"maxY" yaml:"maxY"`
}

// Data holds the buffers. Exactly one of the 1D channels or Matrix is used.
type Data struct {
	X      []float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Re     []float64 `json:"re,omitempty" yaml:"re,omitempty"`
	Im     []float64 `json:"im,omitempty" yaml:"im,omitempty"`
	Matrix *Matrix   `json:"matrix,omitempty" yaml:"matrix,omitempty"`
}

// State is the replay unit: metadata plus buffers.
type State struct {
	Info Info `json:"info" yaml:"info"`
	Data Data `json:"data" yaml:"data"`
}

// New1D builds a validated one-dimensional state. im may be nil for real
// data.
func New1D(info Info, x, re, im []float64) (State, error) {
	info.Dimension = 1
	if im != nil {
		info.IsComplex = true
	}
	s := State{
		Info: info,
		Data: Data{X: core.Clone(x), Re: core.Clone(re), Im: core.Clone(im)},
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// New2D builds a validated two-dimensional state.
func New2D(info Info, m Matrix) (State, error) {
	info.Dimension = 2
	cp := m
	cp.Z = core.CloneMatrix(m.Z)
	s := State{Info: info, Data: Data{Matrix: &cp}}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Is1D reports whether the state carries 1D buffers.
func (s *State) Is1D() bool { return s.Info.Dimension == 1 }

// Is2D reports whether the state carries a matrix.
func (s *State) Is2D() bool { return s.Info.Dimension == 2 }

// HasImaginary reports whether a populated imaginary channel is present.
func (s *State) HasImaginary() bool {
	return s.Is1D() && len(s.Data.Im) > 0 && len(s.Data.Im) == len(s.Data.Re)
}

// Len returns the number of 1D points, or the number of matrix columns.
func (s *State) Len() int {
	if s.Is2D() {
		if s.Data.Matrix == nil || len(s.Data.Matrix.Z) == 0 {
			return 0
		}
		return len(s.Data.Matrix.Z[0])
	}
	return len(s.Data.X)
}

// Validate checks dimensional consistency.
func (s *State) Validate() error {
	switch s.Info.Dimension {
	case 1:
		d := s.Data
		if d.Matrix != nil {
			return fmt.Errorf("%w: 1D state carries a matrix", ErrInvalidState)
		}
		if len(d.Re) != len(d.X) {
			return fmt.Errorf("%w: re length %d != x length %d", ErrInvalidState, len(d.Re), len(d.X))
		}
		if d.Im != nil && len(d.Im) != len(d.X) {
			return fmt.Errorf("%w: im length %d != x length %d", ErrInvalidState, len(d.Im), len(d.X))
		}
	case 2:
		m := s.Data.Matrix
		if m == nil {
			return fmt.Errorf("%w: 2D state without matrix", ErrInvalidState)
		}
		for i, row := range m.Z {
			if len(row) != len(m.Z[0]) {
				return fmt.Errorf("%w: ragged matrix row %d", ErrInvalidState, i)
			}
		}
	default:
		return fmt.Errorf("%w: dimension %d", ErrInvalidState, s.Info.Dimension)
	}
	return nil
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{Info: s.Info}
	out.Data.X = core.Clone(s.Data.X)
	out.Data.Re = core.Clone(s.Data.Re)
	out.Data.Im = core.Clone(s.Data.Im)
	if m := s.Data.Matrix; m != nil {
		cp := *m
		cp.Z = core.CloneMatrix(m.Z)
		out.Data.Matrix = &cp
	}
	return out
}

// Equal reports bit-for-bit equality of metadata and buffers. NaN values
// compare equal to NaN values with the same bit pattern.
func (s *State) Equal(o *State) bool {
	if s.Info != o.Info {
		return false
	}
	if !bitEqual(s.Data.X, o.Data.X) || !bitEqual(s.Data.Re, o.Data.Re) || !bitEqual(s.Data.Im, o.Data.Im) {
		return false
	}
	a, b := s.Data.Matrix, o.Data.Matrix
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if a.MinX != b.MinX || a.MaxX != b.MaxX || a.MinY != b.MinY || a.MaxY != b.MaxY || len(a.Z) != len(b.Z) {
		return false
	}
	for i := range a.Z {
		if !bitEqual(a.Z[i], b.Z[i]) {
			return false
		}
	}
	return true
}

// NonFinite describes the first NaN or Inf found in a state.
type NonFinite struct {
	Channel string
	Index   int
}

// FindNonFinite returns the first non-finite value, if any.
func (s *State) FindNonFinite() (NonFinite, bool) {
	for _, ch := range []struct {
		name string
		buf  []float64
	}{{"x", s.Data.X}, {"re", s.Data.Re}, {"im", s.Data.Im}} {
		if i := core.FirstNonFinite(ch.buf); i >= 0 {
			return NonFinite{Channel: ch.name, Index: i}, true
		}
	}
	if m := s.Data.Matrix; m != nil {
		for r, row := range m.Z {
			if i := core.FirstNonFinite(row); i >= 0 {
				return NonFinite{Channel: fmt.Sprintf("z[%d]", r), Index: i}, true
			}
		}
	}
	return NonFinite{}, false
}

func bitEqual(a, b []float64) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
