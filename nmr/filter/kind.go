package filter

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-nmr/nmr/datum"
)

// Name identifies a filter kind.
type Name string

// Built-in kind names.
const (
	ShiftX             Name = "shiftX"
	ZeroFilling        Name = "zeroFilling"
	Apodization        Name = "apodization"
	DigitalFilter      Name = "digitalFilter"
	FFT                Name = "fft"
	PhaseCorrection    Name = "phaseCorrection"
	BaselineCorrection Name = "baselineCorrection"
	ExclusionZones     Name = "exclusionZones"
	CenterMean         Name = "centerMean"
	StandardDeviation  Name = "standardDeviation"
	Pareto             Name = "pareto"
	FromTo             Name = "fromTo"
	EquallySpaced      Name = "equallySpaced"
	Shift2DX           Name = "shift2DX"
	Shift2DY           Name = "shift2DY"
)

// Options is the typed payload of one kind. Each kind has its own
// implementation; Kind returns the owning kind's name.
type Options interface {
	Kind() Name
}

// Capabilities are static properties of a kind.
type Capabilities struct {
	// Once kinds fold a consecutive request into the previous record
	// through Reduce instead of appending.
	Once bool
	// LivePreview kinds can be driven by an interactive tool that writes
	// into a temporary buffer until committed.
	LivePreview bool
	// PreserveXDomain kinds must not change the visible x window.
	PreserveXDomain bool
	// PreserveYDomain kinds keep the intensity range of the previous state.
	PreserveYDomain bool
	// Protected records cannot be deleted or disabled.
	Protected bool
}

// Kind is one entry of the catalog.
type Kind interface {
	Name() Name
	Label() string
	Capabilities() Capabilities
	// Defaults returns the options used when a request carries none.
	Defaults() Options
	// Decode parses a JSON payload on top of the defaults and validates it.
	Decode(raw []byte) (Options, error)
	// Validate checks the type and field constraints of o.
	Validate(o Options) error
	// Normalize fills generated fields, such as zone ids, before a record is
	// stored.
	Normalize(o Options) (Options, error)
	IsApplicable(s *datum.State) bool
	// Apply mutates s in place.
	Apply(s *datum.State, o Options) error
	// Reduce folds next into prev. ok is false when the pair cannot merge.
	Reduce(prev, next Options) (merged Options, ok bool)
}

// Spec describes a kind for [New].
type Spec[O Options] struct {
	Name         Name
	Label        string
	Capabilities Capabilities
	Defaults     O
	Applicable   func(s *datum.State) bool
	Apply        func(s *datum.State, o O) error
	// Reduce is optional. A nil Reduce never merges.
	Reduce func(prev, next O) (O, bool)
	// Normalize is optional.
	Normalize func(o O) O
}

type kind[O Options] struct {
	spec Spec[O]
}

// New builds a Kind from a typed spec. Options passed to the resulting kind
// must be O or *O; anything else is rejected with ErrOptionsMismatch.
func New[O Options](spec Spec[O]) Kind {
	return &kind[O]{spec: spec}
}

func (k *kind[O]) Name() Name                 { return k.spec.Name }
func (k *kind[O]) Capabilities() Capabilities { return k.spec.Capabilities }
func (k *kind[O]) Defaults() Options          { return k.spec.Defaults }

func (k *kind[O]) Label() string {
	if k.spec.Label == "" {
		return string(k.spec.Name)
	}
	return k.spec.Label
}

func (k *kind[O]) cast(o Options) (O, error) {
	if p, ok := any(o).(*O); ok {
		if p != nil {
			return *p, nil
		}
		return k.spec.Defaults, nil
	}
	switch v := o.(type) {
	case nil:
		return k.spec.Defaults, nil
	case O:
		return v, nil
	}
	var zero O
	return zero, fmt.Errorf("%w: %s got %T", ErrOptionsMismatch, k.spec.Name, o)
}

func (k *kind[O]) Decode(raw []byte) (Options, error) {
	o := k.spec.Defaults
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOptions, k.spec.Name, err)
		}
	}
	if err := k.Validate(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (k *kind[O]) Validate(o Options) error {
	v, err := k.cast(o)
	if err != nil {
		return err
	}
	return validateOptions(k.spec.Name, v)
}

func (k *kind[O]) Normalize(o Options) (Options, error) {
	v, err := k.cast(o)
	if err != nil {
		return nil, err
	}
	if k.spec.Normalize != nil {
		v = k.spec.Normalize(v)
	}
	return v, nil
}

func (k *kind[O]) IsApplicable(s *datum.State) bool {
	if s == nil {
		return false
	}
	if k.spec.Applicable == nil {
		return true
	}
	return k.spec.Applicable(s)
}

func (k *kind[O]) Apply(s *datum.State, o Options) error {
	v, err := k.cast(o)
	if err != nil {
		return err
	}
	if err := validateOptions(k.spec.Name, v); err != nil {
		return err
	}
	if !k.IsApplicable(s) {
		return fmt.Errorf("%w: %s on %s", ErrNotApplicable, k.spec.Name, describe(s))
	}
	if err := k.spec.Apply(s, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrKernelFailure, k.spec.Name, err)
	}
	return nil
}

func (k *kind[O]) Reduce(prev, next Options) (Options, bool) {
	if k.spec.Reduce == nil {
		return nil, false
	}
	p, err := k.cast(prev)
	if err != nil {
		return nil, false
	}
	n, err := k.cast(next)
	if err != nil {
		return nil, false
	}
	merged, ok := k.spec.Reduce(p, n)
	if !ok {
		return nil, false
	}
	return merged, true
}

func describe(s *datum.State) string {
	if s == nil {
		return "nil state"
	}
	domain := "spectrum"
	if s.Info.IsFid {
		domain = "fid"
	}
	channels := "real"
	if s.HasImaginary() {
		channels = "complex"
	}
	return fmt.Sprintf("%dD %s %s", s.Info.Dimension, channels, domain)
}

// lastWins is the Reduce of kinds whose latest parameters replace the
// previous ones.
func lastWins[O Options](_, next O) (O, bool) { return next, true }
