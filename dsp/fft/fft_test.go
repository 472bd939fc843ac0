package fft

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-nmr/internal/testutil"
)

func TestForwardImpulseIsFlat(t *testing.T) {
	re := []float64{1, 0, 0, 0, 0, 0, 0, 0}

	outRe, outIm, err := Forward(re, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, outRe, testutil.DC(1, 8), 1e-12)
	testutil.RequireSliceNearlyEqual(t, outIm, testutil.DC(0, 8), 1e-12)
}

func TestForwardDoesNotModifyInput(t *testing.T) {
	re := testutil.DeterministicNoise(1, 1, 64)
	im := testutil.DeterministicNoise(2, 1, 64)
	origRe := append([]float64(nil), re...)
	origIm := append([]float64(nil), im...)

	if _, _, err := Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	testutil.RequireSliceBitEqual(t, re, origRe)
	testutil.RequireSliceBitEqual(t, im, origIm)
}

func TestForwardToneLandsInBin(t *testing.T) {
	n := 32
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		arg := 2 * math.Pi * 4 * float64(i) / float64(n)
		re[i] = math.Cos(arg)
		im[i] = math.Sin(arg)
	}

	fr, fi, err := Forward(re, im)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	if math.Abs(fr[4]-float64(n)) > 1e-9 || math.Abs(fi[4]) > 1e-9 {
		t.Fatalf("bin 4 = (%v, %v), want (%d, 0)", fr[4], fi[4], n)
	}
}

func TestForwardDeterministic(t *testing.T) {
	re := testutil.DeterministicNoise(7, 1, 128)

	a, _, err := Forward(re, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	b, _, err := Forward(re, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	testutil.RequireSliceBitEqual(t, a, b)
}

func TestForwardErrors(t *testing.T) {
	if _, _, err := Forward(nil, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if _, _, err := Forward([]float64{1, 2, 3}, nil); !errors.Is(err, ErrNotPowerOf2) {
		t.Fatalf("err = %v, want ErrNotPowerOf2", err)
	}
	if _, _, err := Forward([]float64{1, 2}, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestShift(t *testing.T) {
	buf := []float64{0, 1, 2, 3, 4, 5}
	Shift(buf)
	want := []float64{3, 4, 5, 0, 1, 2}
	testutil.RequireSliceBitEqual(t, buf, want)
}

func TestFrequencies(t *testing.T) {
	f := Frequencies(4, 100)
	want := []float64{-50, -25, 0, 25}
	testutil.RequireSliceNearlyEqual(t, f, want, 1e-12)
}
