package filter

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-nmr/dsp/interp"
	"github.com/cwbudde/algo-nmr/nmr/datum"
)

func exclusionZonesKind() Kind {
	return New(Spec[ExclusionZonesOptions]{
		Name:         ExclusionZones,
		Label:        "Exclusion zones",
		Capabilities: Capabilities{Once: true},
		Applicable:   is1D,
		Apply: func(s *datum.State, o ExclusionZonesOptions) error {
			zeroZones(s, o.Zones)
			return nil
		},
		Reduce: func(prev, next ExclusionZonesOptions) (ExclusionZonesOptions, bool) {
			zones := make([]Zone, 0, len(prev.Zones)+len(next.Zones))
			zones = append(zones, prev.Zones...)
			zones = append(zones, next.Zones...)
			return ExclusionZonesOptions{Zones: zones}, true
		},
		Normalize: func(o ExclusionZonesOptions) ExclusionZonesOptions {
			o.Zones = withZoneIDs(o.Zones)
			return o
		},
	})
}

func zeroZones(s *datum.State, zones []Zone) {
	if len(zones) == 0 {
		return
	}
	for i, x := range s.Data.X {
		if !inAnyZone(zones, x) {
			continue
		}
		s.Data.Re[i] = 0
		if s.HasImaginary() {
			s.Data.Im[i] = 0
		}
	}
}

var errEmptyRange = errors.New("range selects no points")

func fromToKind() Kind {
	return New(Spec[FromToOptions]{
		Name:       FromTo,
		Label:      "From / to",
		Applicable: is1D,
		Apply:      applyFromTo,
	})
}

func applyFromTo(s *datum.State, o FromToOptions) error {
	zone := Zone{From: o.From, To: o.To}
	complexData := s.HasImaginary()

	var x, re, im []float64
	for i, v := range s.Data.X {
		if !zone.Contains(v) {
			continue
		}
		x = append(x, v)
		re = append(re, s.Data.Re[i])
		if complexData {
			im = append(im, s.Data.Im[i])
		}
	}
	if len(x) == 0 {
		lo, hi := zone.Bounds()
		return fmt.Errorf("%w: [%g, %g]", errEmptyRange, lo, hi)
	}

	s.Data.X, s.Data.Re = x, re
	if complexData {
		s.Data.Im = im
	}
	return nil
}

func equallySpacedKind() Kind {
	return New(Spec[EquallySpacedOptions]{
		Name:       EquallySpaced,
		Label:      "Equally spaced",
		Applicable: is1D,
		Apply:      applyEquallySpaced,
		Normalize: func(o EquallySpacedOptions) EquallySpacedOptions {
			o.Exclusions = withZoneIDs(o.Exclusions)
			return o
		},
	})
}

func applyEquallySpaced(s *datum.State, o EquallySpacedOptions) error {
	grid := interp.Grid(o.From, o.To, o.NumberOfPoints)

	re, err := interp.Linear(s.Data.X, s.Data.Re, grid)
	if err != nil {
		return err
	}
	var im []float64
	if s.HasImaginary() {
		if im, err = interp.Linear(s.Data.X, s.Data.Im, grid); err != nil {
			return err
		}
	}

	s.Data.X, s.Data.Re = grid, re
	if im != nil {
		s.Data.Im = im
	}
	zeroZones(s, o.Exclusions)
	return nil
}
