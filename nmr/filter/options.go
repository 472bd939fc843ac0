package filter

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// optionsValidate is shared by all kinds. It is safe for concurrent use.
var optionsValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", validateFinite)
	return v
}

func validateFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}

func validateOptions(name Name, o any) error {
	err := optionsValidate.Struct(o)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return fmt.Errorf("%w: %s: %w", ErrOptionsMismatch, name, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidOptions, name, err)
}

// Zone is a closed x range. From and To may be given in either order.
type Zone struct {
	ID   string  `json:"id,omitempty" yaml:"id,omitempty"`
	From float64 `json:"from" yaml:"from" validate:"finite"`
	To   float64 `json:"to" yaml:"to" validate:"finite"`
}

// Contains reports whether x lies within the zone.
func (z Zone) Contains(x float64) bool {
	lo, hi := z.Bounds()
	return x >= lo && x <= hi
}

// Bounds returns the zone limits in ascending order.
func (z Zone) Bounds() (lo, hi float64) {
	if z.From <= z.To {
		return z.From, z.To
	}
	return z.To, z.From
}

func withZoneIDs(zones []Zone) []Zone {
	if len(zones) == 0 {
		return zones
	}
	out := make([]Zone, len(zones))
	for i, z := range zones {
		if z.ID == "" {
			z.ID = uuid.NewString()
		}
		out[i] = z
	}
	return out
}

func inAnyZone(zones []Zone, x float64) bool {
	for _, z := range zones {
		if z.Contains(x) {
			return true
		}
	}
	return false
}

// ShiftXOptions moves the x axis of a 1D spectrum.
type ShiftXOptions struct {
	Shift float64 `json:"shift" yaml:"shift" validate:"finite"`
}

// Kind implements Options.
func (ShiftXOptions) Kind() Name { return ShiftX }

// Shift2DXOptions moves the direct axis of a 2D spectrum.
type Shift2DXOptions struct {
	Shift float64 `json:"shift" yaml:"shift" validate:"finite"`
}

// Kind implements Options.
func (Shift2DXOptions) Kind() Name { return Shift2DX }

// Shift2DYOptions moves the indirect axis of a 2D spectrum.
type Shift2DYOptions struct {
	Shift float64 `json:"shift" yaml:"shift" validate:"finite"`
}

// Kind implements Options.
func (Shift2DYOptions) Kind() Name { return Shift2DY }

// ZeroFillingOptions sets the target number of points.
type ZeroFillingOptions struct {
	Size int `json:"size" yaml:"size" validate:"gt=0,lte=67108864"`
}

// Kind implements Options.
func (ZeroFillingOptions) Kind() Name { return ZeroFilling }

// Apodization window functions. An empty function selects Lorentz-to-Gauss
// when GaussBroadening is set and exponential otherwise.
const (
	WindowExponential    = "exponential"
	WindowLorentzToGauss = "lorentzToGauss"
	WindowSineBell       = "sineBell"
	WindowSineSquare     = "sineSquare"
	WindowHann           = "hann"
)

// ApodizationOptions configures the apodization window. Broadening values
// are in Hz; LineBroadeningCenter is a fraction of the acquisition time.
// SineBellShift moves sine windows towards a cosine (0 = sine, 1 = cosine).
type ApodizationOptions struct {
	Function             string  `json:"function,omitempty" yaml:"function,omitempty" validate:"omitempty,oneof=exponential lorentzToGauss sineBell sineSquare hann"`
	LineBroadening       float64 `json:"lineBroadening" yaml:"lineBroadening" validate:"finite"`
	GaussBroadening      float64 `json:"gaussBroadening" yaml:"gaussBroadening" validate:"finite,gte=0"`
	LineBroadeningCenter float64 `json:"lineBroadeningCenter" yaml:"lineBroadeningCenter" validate:"gte=0,lte=1"`
	SineBellShift        float64 `json:"sineBellShift,omitempty" yaml:"sineBellShift,omitempty" validate:"gte=0,lte=1"`
}

// Kind implements Options.
func (ApodizationOptions) Kind() Name { return Apodization }

// DigitalFilterOptions sets the group delay in points. Zero takes the delay
// recorded in the acquisition info.
type DigitalFilterOptions struct {
	GroupDelay float64 `json:"groupDelay,omitempty" yaml:"groupDelay,omitempty" validate:"finite,gte=0"`
}

// Kind implements Options.
func (DigitalFilterOptions) Kind() Name { return DigitalFilter }

// FFTOptions has no parameters.
type FFTOptions struct{}

// Kind implements Options.
func (FFTOptions) Kind() Name { return FFT }

// PhaseCorrectionOptions holds zero- and first-order angles in degrees.
// Absolute replaces the spectrum by its magnitude.
type PhaseCorrectionOptions struct {
	Ph0      float64 `json:"ph0" yaml:"ph0" validate:"finite"`
	Ph1      float64 `json:"ph1" yaml:"ph1" validate:"finite"`
	Absolute bool    `json:"absolute,omitempty" yaml:"absolute,omitempty"`
}

// Kind implements Options.
func (PhaseCorrectionOptions) Kind() Name { return PhaseCorrection }

// Baseline algorithms.
const (
	BaselinePolynomial = "polynomial"
)

// BaselineCorrectionOptions fits a baseline over Zones (all points when
// empty) and subtracts it.
type BaselineCorrectionOptions struct {
	Algorithm string `json:"algorithm" yaml:"algorithm" validate:"oneof=polynomial"`
	Degree    int    `json:"degree" yaml:"degree" validate:"gte=0,lte=10"`
	Zones     []Zone `json:"zones,omitempty" yaml:"zones,omitempty" validate:"dive"`
}

// Kind implements Options.
func (BaselineCorrectionOptions) Kind() Name { return BaselineCorrection }

// ExclusionZonesOptions zeroes the intensity inside each zone.
type ExclusionZonesOptions struct {
	Zones []Zone `json:"zones" yaml:"zones" validate:"dive"`
}

// Kind implements Options.
func (ExclusionZonesOptions) Kind() Name { return ExclusionZones }

// CenterMeanOptions has no parameters.
type CenterMeanOptions struct{}

// Kind implements Options.
func (CenterMeanOptions) Kind() Name { return CenterMean }

// StandardDeviationOptions has no parameters.
type StandardDeviationOptions struct{}

// Kind implements Options.
func (StandardDeviationOptions) Kind() Name { return StandardDeviation }

// ParetoOptions has no parameters.
type ParetoOptions struct{}

// Kind implements Options.
func (ParetoOptions) Kind() Name { return Pareto }

// FromToOptions keeps the points between From and To.
type FromToOptions struct {
	From float64 `json:"from" yaml:"from" validate:"finite"`
	To   float64 `json:"to" yaml:"to" validate:"finite"`
}

// Kind implements Options.
func (FromToOptions) Kind() Name { return FromTo }

// EquallySpacedOptions resamples onto NumberOfPoints uniform points between
// From and To, zeroing Exclusions.
type EquallySpacedOptions struct {
	From           float64 `json:"from" yaml:"from" validate:"finite"`
	To             float64 `json:"to" yaml:"to" validate:"finite"`
	NumberOfPoints int     `json:"numberOfPoints" yaml:"numberOfPoints" validate:"gt=1,lte=67108864"`
	Exclusions     []Zone  `json:"exclusions,omitempty" yaml:"exclusions,omitempty" validate:"dive"`
}

// Kind implements Options.
func (EquallySpacedOptions) Kind() Name { return EquallySpaced }

// RemoveZone drops the zone with the given id from options that carry
// zones. found is false when o has no such zone; empty reports whether no
// zones remain.
func RemoveZone(o Options, id string) (out Options, found, empty bool) {
	return removeZones(o, func(z Zone) bool { return z.ID == id })
}

// RemoveZonesInRange drops every zone of an exclusion zones record whose
// bounds match [from, to] in either order. Zones carried by other kinds are
// left alone.
func RemoveZonesInRange(o Options, from, to float64) (out Options, found, empty bool) {
	if _, ok := o.(ExclusionZonesOptions); !ok {
		return o, false, false
	}
	lo, hi := Zone{From: from, To: to}.Bounds()
	return removeZones(o, func(z Zone) bool {
		zlo, zhi := z.Bounds()
		return core.NearlyEqual(zlo, lo, zoneEpsilon) && core.NearlyEqual(zhi, hi, zoneEpsilon)
	})
}

const zoneEpsilon = 1e-9

func removeZones(o Options, drop func(Zone) bool) (out Options, found, empty bool) {
	filter := func(zones []Zone) ([]Zone, bool) {
		kept := make([]Zone, 0, len(zones))
		hit := false
		for _, z := range zones {
			if drop(z) {
				hit = true
				continue
			}
			kept = append(kept, z)
		}
		return kept, hit
	}

	switch v := o.(type) {
	case ExclusionZonesOptions:
		v.Zones, found = filter(v.Zones)
		return v, found, len(v.Zones) == 0
	case BaselineCorrectionOptions:
		v.Zones, found = filter(v.Zones)
		return v, found, false
	case EquallySpacedOptions:
		v.Exclusions, found = filter(v.Exclusions)
		return v, found, false
	}
	return o, false, false
}
