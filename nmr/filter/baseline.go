package filter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-nmr/nmr/datum"
)

func baselineCorrectionKind() Kind {
	return New(Spec[BaselineCorrectionOptions]{
		Name:  BaselineCorrection,
		Label: "Baseline correction",
		Capabilities: Capabilities{
			Once:            true,
			LivePreview:     true,
			PreserveXDomain: true,
		},
		Defaults: BaselineCorrectionOptions{Algorithm: BaselinePolynomial, Degree: 3},
		Applicable: func(s *datum.State) bool {
			return s.Is1D() && !s.Info.IsFid
		},
		Apply:  applyBaselineCorrection,
		Reduce: lastWins[BaselineCorrectionOptions],
		Normalize: func(o BaselineCorrectionOptions) BaselineCorrectionOptions {
			o.Zones = withZoneIDs(o.Zones)
			return o
		},
	})
}

func applyBaselineCorrection(s *datum.State, o BaselineCorrectionOptions) error {
	x, re := s.Data.X, s.Data.Re
	if len(x) == 0 {
		return nil
	}

	baseline, err := fitPolynomial(x, re, o.Zones, o.Degree)
	if err != nil {
		return err
	}
	floats.Sub(re, baseline)
	return nil
}

// fitPolynomial fits a least-squares polynomial of the given degree to the
// points inside zones (all points when zones is empty) and evaluates it over
// the whole axis. x is mapped onto [-1, 1] to keep the system well
// conditioned.
func fitPolynomial(x, y []float64, zones []Zone, degree int) ([]float64, error) {
	lo, hi := floats.Min(x), floats.Max(x)
	scale := func(v float64) float64 {
		if hi == lo {
			return 0
		}
		return 2*(v-lo)/(hi-lo) - 1
	}

	var idx []int
	for i, v := range x {
		if len(zones) == 0 || inAnyZone(zones, v) {
			idx = append(idx, i)
		}
	}
	cols := degree + 1
	if len(idx) < cols {
		return nil, fmt.Errorf("baseline: %d points for degree %d", len(idx), degree)
	}

	A := mat.NewDense(len(idx), cols, nil)
	B := mat.NewVecDense(len(idx), nil)
	for r, i := range idx {
		t := scale(x[i])
		p := 1.0
		for c := 0; c < cols; c++ {
			A.Set(r, c, p)
			p *= t
		}
		B.SetVec(r, y[i])
	}

	var qr mat.QR
	qr.Factorize(A)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, B); err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}

	out := make([]float64, len(x))
	for i, v := range x {
		t := scale(v)
		// Horner evaluation.
		acc := 0.0
		for c := cols - 1; c >= 0; c-- {
			acc = acc*t + coef.AtVec(c)
		}
		out[i] = acc
	}
	return out, nil
}
