package filter

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-nmr/nmr/datum"
)

func TestDefaultRegistryCatalog(t *testing.T) {
	t.Parallel()

	want := []Name{
		Apodization, BaselineCorrection, CenterMean, DigitalFilter, EquallySpaced,
		ExclusionZones, FFT, FromTo, Pareto, PhaseCorrection, Shift2DX, Shift2DY,
		ShiftX, StandardDeviation, ZeroFilling,
	}

	kinds := DefaultRegistry().Kinds()
	if len(kinds) != len(want) {
		t.Fatalf("got %d kinds, want %d", len(kinds), len(want))
	}
	for i, k := range kinds {
		if k.Name() != want[i] {
			t.Fatalf("kinds[%d] = %s, want %s", i, k.Name(), want[i])
		}
		if k.Label() == "" {
			t.Fatalf("%s has empty label", k.Name())
		}
	}
}

func TestLivePreviewCapability(t *testing.T) {
	t.Parallel()

	preview := map[Name]bool{
		PhaseCorrection:    true,
		BaselineCorrection: true,
		Apodization:        true,
		ZeroFilling:        true,
	}
	for _, k := range DefaultRegistry().Kinds() {
		if got := k.Capabilities().LivePreview; got != preview[k.Name()] {
			t.Errorf("%s LivePreview = %v, want %v", k.Name(), got, preview[k.Name()])
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	_, err := DefaultRegistry().Lookup("noSuchFilter")
	if !errors.Is(err, ErrNotApplicable) || !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrNotApplicable and ErrUnknownKind", err)
	}
}

func TestRegisterErrors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatal("expected error for nil kind")
	}
	if err := r.Register(shiftXKind()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(shiftXKind()); !errors.Is(err, errDuplicateKind) {
		t.Fatalf("err = %v, want errDuplicateKind", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustRegister should panic on duplicates")
		}
	}()
	r.MustRegister(shiftXKind())
}

func TestWithProtected(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(WithProtected(DigitalFilter))
	k, err := r.Lookup(DigitalFilter)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !k.Capabilities().Protected {
		t.Fatal("digitalFilter should be protected")
	}
	k, _ = r.Lookup(FFT)
	if k.Capabilities().Protected {
		t.Fatal("fft should not be protected")
	}
}

type scaleOptions struct {
	Factor float64 `json:"factor" validate:"finite"`
}

func (scaleOptions) Kind() Name { return "scale" }

func TestWithKind(t *testing.T) {
	t.Parallel()

	custom := New(Spec[scaleOptions]{
		Name:       "scale",
		Defaults:   scaleOptions{Factor: 1},
		Applicable: is1D,
		Apply: func(s *datum.State, o scaleOptions) error {
			for i := range s.Data.Re {
				s.Data.Re[i] *= o.Factor
			}
			return nil
		},
	})

	r := DefaultRegistry(WithKind(custom))
	k, o, err := r.Decode("scale", []byte(`{"factor":3}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if o.(scaleOptions).Factor != 3 {
		t.Fatalf("decoded %+v", o)
	}

	s := realSpectrum(t, []float64{0, 1}, []float64{1, 2})
	if err := k.Apply(s, o); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Data.Re[1] != 6 {
		t.Fatalf("re = %v", s.Data.Re)
	}
}
