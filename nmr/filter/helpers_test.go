package filter

import (
	"testing"

	"github.com/cwbudde/algo-nmr/internal/testutil"
	"github.com/cwbudde/algo-nmr/nmr/datum"
)

func realSpectrum(t *testing.T, x, re []float64) *datum.State {
	t.Helper()
	s, err := datum.New1D(datum.Info{}, x, re, nil)
	if err != nil {
		t.Fatalf("New1D: %v", err)
	}
	return &s
}

func complexSpectrum(t *testing.T, x, re, im []float64) *datum.State {
	t.Helper()
	s, err := datum.New1D(datum.Info{}, x, re, im)
	if err != nil {
		t.Fatalf("New1D: %v", err)
	}
	return &s
}

func fidState(t *testing.T, n int, dwell float64, res ...testutil.Resonance) *datum.State {
	t.Helper()
	x, re, im := testutil.FID(n, dwell, res...)
	s, err := datum.New1D(datum.Info{IsFid: true}, x, re, im)
	if err != nil {
		t.Fatalf("New1D: %v", err)
	}
	return &s
}

func matrixState(t *testing.T) *datum.State {
	t.Helper()
	s, err := datum.New2D(datum.Info{}, datum.Matrix{
		Z:    [][]float64{{1, 2}, {3, 4}},
		MinX: 0, MaxX: 10, MinY: -5, MaxY: 5,
	})
	if err != nil {
		t.Fatalf("New2D: %v", err)
	}
	return &s
}

func mustKind(t *testing.T, name Name) Kind {
	t.Helper()
	k, err := DefaultRegistry().Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", name, err)
	}
	return k
}
