package filter

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-nmr/dsp/core"
	"github.com/cwbudde/algo-nmr/dsp/spectrum"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/stats/intensity"
)

func phaseCorrectionKind() Kind {
	return New(Spec[PhaseCorrectionOptions]{
		Name:         PhaseCorrection,
		Label:        "Phase correction",
		Capabilities: Capabilities{Once: true, LivePreview: true},
		Applicable:   isComplexSpectrum,
		Apply:        applyPhaseCorrection,
		Reduce: func(prev, next PhaseCorrectionOptions) (PhaseCorrectionOptions, bool) {
			if prev.Absolute || next.Absolute {
				return PhaseCorrectionOptions{}, false
			}
			return PhaseCorrectionOptions{Ph0: prev.Ph0 + next.Ph0, Ph1: prev.Ph1 + next.Ph1}, true
		},
	})
}

func applyPhaseCorrection(s *datum.State, o PhaseCorrectionOptions) error {
	if o.Absolute {
		mag, err := spectrum.Magnitude(s.Data.Re, s.Data.Im)
		if err != nil {
			return err
		}
		s.Data.Re = mag
		s.Data.Im = nil
		s.Info.IsComplex = false
		return nil
	}
	return spectrum.Rotate(s.Data.Re, s.Data.Im, core.DegToRad(o.Ph0), core.DegToRad(o.Ph1))
}

// ErrNoPeaks is returned by AutoPhase when no peak can anchor the estimate.
var ErrNoPeaks = errors.New("filter: no peaks for automatic phasing")

// AutoPhase estimates zero- and first-order phase angles in degrees that
// turn the strongest peaks of a complex spectrum into positive absorption
// lines. With one usable peak only ph0 is estimated; with two, the angles
// are solved so that both peaks are phased.
func AutoPhase(s *datum.State) (PhaseCorrectionOptions, error) {
	if !isComplexSpectrum(s) {
		return PhaseCorrectionOptions{}, ErrNotApplicable
	}
	pw, err := spectrum.Power(s.Data.Re, s.Data.Im)
	if err != nil {
		return PhaseCorrectionOptions{}, err
	}
	if intensity.AbsMax(pw) == 0 {
		return PhaseCorrectionOptions{}, ErrNoPeaks
	}
	n := len(pw)

	peaks := spectrum.LocalMaxima(pw, 0)
	if len(peaks) == 0 {
		p, ok := spectrum.StrongestPeak(s.Data.X, pw)
		if !ok {
			return PhaseCorrectionOptions{}, ErrNoPeaks
		}
		peaks = []int{p.Index}
	}

	phase, err := spectrum.Phase(s.Data.Re, s.Data.Im)
	if err != nil {
		return PhaseCorrectionOptions{}, err
	}

	// Rotating point i by -phase[i] puts it on the positive real axis.
	i1 := peaks[0]
	theta1 := -phase[i1]
	if len(peaks) == 1 || pw[peaks[1]] < 0.01*pw[i1] {
		return PhaseCorrectionOptions{Ph0: radToDeg(theta1)}, nil
	}

	i2 := peaks[1]
	u := spectrum.UnwrapPhase([]float64{theta1, -phase[i2]})
	d := u[1] - u[0]
	p1 := float64(i1) / float64(n)
	p2 := float64(i2) / float64(n)
	ph1 := d / (p2 - p1)
	ph0 := theta1 - ph1*p1

	return PhaseCorrectionOptions{Ph0: radToDeg(ph0), Ph1: radToDeg(ph1)}, nil
}

func radToDeg(rad float64) float64 { return rad * 180 / math.Pi }
