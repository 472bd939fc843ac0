package filter

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/stats/intensity"
)

func centerMeanKind() Kind {
	return New(Spec[CenterMeanOptions]{
		Name:       CenterMean,
		Label:      "Center mean",
		Applicable: is1D,
		Apply: func(s *datum.State, _ CenterMeanOptions) error {
			floats.AddConst(-intensity.Mean(s.Data.Re), s.Data.Re)
			return nil
		},
	})
}

// standardDeviationKind scales intensities to unit sample standard
// deviation. A constant spectrum yields non-finite output and is reported
// as a kernel failure.
func standardDeviationKind() Kind {
	return New(Spec[StandardDeviationOptions]{
		Name:       StandardDeviation,
		Label:      "Standard deviation",
		Applicable: is1D,
		Apply: func(s *datum.State, _ StandardDeviationOptions) error {
			std := intensity.StdDev(s.Data.Re)
			floats.Scale(1/std, s.Data.Re)
			return nil
		},
	})
}

// paretoKind scales intensities by the inverse square root of their sample
// standard deviation.
func paretoKind() Kind {
	return New(Spec[ParetoOptions]{
		Name:       Pareto,
		Label:      "Pareto",
		Applicable: is1D,
		Apply: func(s *datum.State, _ ParetoOptions) error {
			std := intensity.StdDev(s.Data.Re)
			floats.Scale(1/math.Sqrt(std), s.Data.Re)
			return nil
		},
	})
}
