package intensity

import (
	"math"
	"testing"
)

const tolerance = 1e-10

func TestCalculateConstant(t *testing.T) {
	signal := []float64{2, 2, 2, 2}
	s := Calculate(signal)

	if s.Length != 4 {
		t.Errorf("Length: got %d, want 4", s.Length)
	}
	if math.Abs(s.Mean-2) > tolerance {
		t.Errorf("Mean: got %g, want 2", s.Mean)
	}
	if s.StdDev != 0 {
		t.Errorf("StdDev: got %g, want 0", s.StdDev)
	}
	if s.Range != 0 {
		t.Errorf("Range: got %g, want 0", s.Range)
	}
}

func TestCalculateMatchesHelpers(t *testing.T) {
	signal := []float64{1, -3, 4, 0.5, 2, -1}
	s := Calculate(signal)

	if math.Abs(s.Mean-Mean(signal)) > tolerance {
		t.Errorf("Mean mismatch: %g vs %g", s.Mean, Mean(signal))
	}
	if math.Abs(s.StdDev-StdDev(signal)) > tolerance {
		t.Errorf("StdDev mismatch: %g vs %g", s.StdDev, StdDev(signal))
	}
	if s.AbsMax != AbsMax(signal) || s.AbsMax != 4 {
		t.Errorf("AbsMax: got %g, want 4", s.AbsMax)
	}
	if s.MaxPos != 2 || s.MinPos != 1 {
		t.Errorf("positions: max=%d min=%d", s.MaxPos, s.MinPos)
	}
}

func TestStdDevKnown(t *testing.T) {
	// Sample variance of 2,4,4,4,5,5,7,9 is 32/7.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > tolerance {
		t.Fatalf("StdDev: got %g, want %g", got, want)
	}
}

func TestEmpty(t *testing.T) {
	if s := Calculate(nil); s.Length != 0 || s.Mean != 0 {
		t.Fatalf("unexpected stats for empty input: %+v", s)
	}
	if Mean(nil) != 0 || StdDev([]float64{1}) != 0 || AbsMax(nil) != 0 {
		t.Fatal("expected zero helpers for degenerate input")
	}
}
