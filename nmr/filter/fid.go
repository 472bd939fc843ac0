package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-nmr/dsp/core"
	"github.com/cwbudde/algo-nmr/dsp/fft"
	"github.com/cwbudde/algo-nmr/dsp/spectrum"
	"github.com/cwbudde/algo-nmr/dsp/window"
	"github.com/cwbudde/algo-nmr/nmr/datum"
)

var errDwell = errors.New("x axis must be strictly increasing with at least two points")

func isComplexFID(s *datum.State) bool {
	return s.Is1D() && s.Info.IsFid && s.HasImaginary()
}

func isComplexSpectrum(s *datum.State) bool {
	return s.Is1D() && !s.Info.IsFid && s.HasImaginary()
}

// dwellTime returns the sampling step of a FID time axis.
func dwellTime(x []float64) (float64, error) {
	if len(x) < 2 {
		return 0, errDwell
	}
	dt := x[1] - x[0]
	if !(dt > 0) {
		return 0, errDwell
	}
	return dt, nil
}

func zeroFillingKind() Kind {
	return New(Spec[ZeroFillingOptions]{
		Name:         ZeroFilling,
		Label:        "Zero filling",
		Capabilities: Capabilities{Once: true, LivePreview: true, PreserveYDomain: true},
		Applicable:   isComplexFID,
		Apply:        applyZeroFilling,
		Reduce:       lastWins[ZeroFillingOptions],
	})
}

// applyZeroFilling keeps the first min(size, n) points and pads with zeros.
// When a digital filter moved its group delay to the end of the FID, that
// tail stays at the end of the padded buffer.
func applyZeroFilling(s *datum.State, o ZeroFillingOptions) error {
	n := len(s.Data.X)
	size := o.Size
	keep := min(size, n)

	tail := 0
	if s.Info.DigitalFilterApplied {
		tail = int(math.Floor(s.Info.GroupDelay))
		if tail >= keep {
			tail = 0
		}
	}

	var step float64
	if n >= 2 {
		step = s.Data.X[1] - s.Data.X[0]
	}
	var x0 float64
	if n > 0 {
		x0 = s.Data.X[0]
	}

	pad := func(in []float64) []float64 {
		out := make([]float64, size)
		copy(out, in[:keep-tail])
		if tail > 0 {
			copy(out[size-tail:], in[n-tail:])
		}
		return out
	}

	s.Data.Re = pad(s.Data.Re)
	s.Data.Im = pad(s.Data.Im)
	s.Data.X = core.Ramp(x0, step, size)
	return nil
}

func apodizationKind() Kind {
	return New(Spec[ApodizationOptions]{
		Name:         Apodization,
		Label:        "Apodization",
		Capabilities: Capabilities{Once: true, LivePreview: true},
		Applicable:   isComplexFID,
		Apply:        applyApodization,
		Reduce:       lastWins[ApodizationOptions],
	})
}

var sineWindows = map[string]window.Type{
	WindowSineBell:   window.TypeSineBell,
	WindowSineSquare: window.TypeSineSquare,
	WindowHann:       window.TypeHann,
}

func applyApodization(s *datum.State, o ApodizationOptions) error {
	if t, ok := sineWindows[o.Function]; ok {
		window.Apply(t, s.Data.X, []window.Option{window.WithShift(o.SineBellShift)}, s.Data.Re, s.Data.Im)
		return nil
	}

	var (
		coeffs []float64
		err    error
	)
	lorentzToGauss := o.Function == WindowLorentzToGauss || (o.Function == "" && o.GaussBroadening > 0)
	if lorentzToGauss {
		coeffs, err = window.LorentzToGauss(s.Data.X, o.LineBroadening, o.GaussBroadening, o.LineBroadeningCenter)
	} else {
		coeffs, err = window.Exponential(s.Data.X, o.LineBroadening)
	}
	if err != nil {
		return err
	}
	if err := window.ApplyCoefficientsInPlace(s.Data.Re, coeffs); err != nil {
		return err
	}
	return window.ApplyCoefficientsInPlace(s.Data.Im, coeffs)
}

func digitalFilterKind() Kind {
	return New(Spec[DigitalFilterOptions]{
		Name:  DigitalFilter,
		Label: "Digital filter",
		Applicable: func(s *datum.State) bool {
			return isComplexFID(s) && !s.Info.DigitalFilterApplied
		},
		Apply: applyDigitalFilter,
	})
}

// applyDigitalFilter rotates the whole-point part of the group delay to the
// end of the FID. The fractional remainder is left for the transform, which
// removes it with a first order phase term.
func applyDigitalFilter(s *datum.State, o DigitalFilterOptions) error {
	delay := o.GroupDelay
	if delay == 0 {
		delay = s.Info.GroupDelay
	}
	n := len(s.Data.Re)
	whole := int(math.Floor(delay))
	if whole >= n {
		return fmt.Errorf("group delay %g exceeds %d points", delay, n)
	}

	rotate := func(buf []float64) {
		if whole == 0 {
			return
		}
		head := core.Clone(buf[:whole])
		copy(buf, buf[whole:])
		copy(buf[n-whole:], head)
	}
	rotate(s.Data.Re)
	rotate(s.Data.Im)

	s.Info.GroupDelay = delay
	s.Info.PendingGroupDelay = delay - float64(whole)
	s.Info.DigitalFilterApplied = true
	return nil
}

func fftKind() Kind {
	return New(Spec[FFTOptions]{
		Name:       FFT,
		Label:      "Fourier transform",
		Applicable: isComplexFID,
		Apply:      applyFFT,
	})
}

// applyFFT zero-pads to the next power of two, halves the first point,
// transforms and centres the zero frequency. The x axis becomes ppm when the
// spectrometer frequency is known, Hz otherwise.
func applyFFT(s *datum.State, _ FFTOptions) error {
	dt, err := dwellTime(s.Data.X)
	if err != nil {
		return err
	}

	n := core.NextPowerOf2(len(s.Data.Re))
	re := core.Resize(s.Data.Re, n)
	im := core.Resize(s.Data.Im, n)
	re[0] *= 0.5
	im[0] *= 0.5

	outRe, outIm, err := fft.Forward(re, im)
	if err != nil {
		return err
	}
	fft.Shift(outRe)
	fft.Shift(outIm)

	if d := s.Info.PendingGroupDelay; d != 0 {
		if err := spectrum.Rotate(outRe, outIm, -math.Pi*d, 2*math.Pi*d); err != nil {
			return err
		}
		s.Info.PendingGroupDelay = 0
	}

	x := fft.Frequencies(n, 1/dt)
	if sf := s.Info.SpectrometerFrequency; sf > 0 {
		for i := range x {
			x[i] = x[i]/sf + s.Info.Offset
		}
	}

	s.Data.X = x
	s.Data.Re = outRe
	s.Data.Im = outIm
	s.Info.IsFid = false
	return nil
}
