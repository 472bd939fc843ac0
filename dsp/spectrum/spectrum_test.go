package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-nmr/internal/testutil"
)

func TestMagnitudePhasePower(t *testing.T) {
	re := []float64{3, -1, 0}
	im := []float64{4, -1, 0}

	mag, err := Magnitude(re, im)
	if err != nil {
		t.Fatalf("Magnitude: %v", err)
	}
	if math.Abs(mag[0]-5) > 1e-12 {
		t.Fatalf("Magnitude[0]=%f want=5", mag[0])
	}

	pow, err := Power(re, im)
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	if math.Abs(pow[0]-25) > 1e-12 {
		t.Fatalf("Power[0]=%f want=25", pow[0])
	}

	phase, err := Phase(re, im)
	if err != nil {
		t.Fatalf("Phase: %v", err)
	}
	if math.Abs(phase[0]-math.Atan2(4, 3)) > 1e-12 {
		t.Fatalf("Phase[0]=%f mismatch", phase[0])
	}
}

func TestLengthMismatch(t *testing.T) {
	if _, err := Magnitude([]float64{1}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if err := Rotate([]float64{1, 2}, []float64{1}, 0, 0); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestUnwrapPhase(t *testing.T) {
	in := []float64{2.8, -2.7, -2.6}

	out := UnwrapPhase(in)
	if out[1] <= out[0] {
		t.Fatalf("expected increasing unwrapped phase: %v", out)
	}

	if math.Abs((out[1]-out[0])-(2*math.Pi-5.5)) > 1e-12 {
		t.Fatalf("unexpected unwrap delta: %f", out[1]-out[0])
	}
}

func TestRotateZeroOrder(t *testing.T) {
	re := []float64{1, 0}
	im := []float64{0, 1}

	if err := Rotate(re, im, math.Pi/2, 0); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, re, []float64{0, -1}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, im, []float64{1, 0}, 1e-12)
}

func TestRotateInverse(t *testing.T) {
	re := testutil.DeterministicNoise(3, 1, 32)
	im := testutil.DeterministicNoise(4, 1, 32)
	origRe := append([]float64(nil), re...)
	origIm := append([]float64(nil), im...)

	if err := Rotate(re, im, 0.3, 1.7); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := Rotate(re, im, -0.3, -1.7); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, re, origRe, 1e-12)
	testutil.RequireSliceNearlyEqual(t, im, origIm, 1e-12)
}

func TestStrongestPeak(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{0.5, -3, 2, 1}

	p, ok := StrongestPeak(x, y)
	if !ok {
		t.Fatal("expected a peak")
	}
	if p.Index != 1 || p.X != 2 || p.Y != -3 {
		t.Fatalf("unexpected peak: %+v", p)
	}

	if _, ok := StrongestPeak(nil, nil); ok {
		t.Fatal("expected no peak for empty input")
	}
}

func TestLocalMaxima(t *testing.T) {
	y := []float64{0, 1, 0, 5, 0, 3, 0}
	got := LocalMaxima(y, 0.5)
	want := []int{3, 5, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
