package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// ErrLengthMismatch is returned when channel lengths differ.
var ErrLengthMismatch = errors.New("spectrum: channel length mismatch")

// scratchBuf holds pooled scratch memory for phase rotation.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (a, b []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	buf.data = core.EnsureLen(buf.data, 2*n)
	return buf.data[:n], buf.data[n:], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns sqrt(re^2 + im^2) for each point.
//
// This uses the SIMD-dispatched vecmath kernel when available.
func Magnitude(re, im []float64) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(re), len(im))
	}
	if len(re) == 0 {
		return nil, nil
	}

	out := make([]float64, len(re))
	vecmath.Magnitude(out, re, im)
	return out, nil
}

// Power returns re^2 + im^2 for each point.
func Power(re, im []float64) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(re), len(im))
	}
	if len(re) == 0 {
		return nil, nil
	}

	out := make([]float64, len(re))
	vecmath.Power(out, re, im)
	return out, nil
}

// Phase returns atan2(im, re) for each point in radians.
func Phase(re, im []float64) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(re), len(im))
	}
	out := make([]float64, len(re))
	for i := range out {
		out[i] = math.Atan2(im[i], re[i])
	}
	return out, nil
}

// UnwrapPhase returns a new phase slice with +/-2*pi discontinuities removed.
func UnwrapPhase(phase []float64) []float64 {
	if len(phase) == 0 {
		return nil
	}
	out := make([]float64, len(phase))
	out[0] = phase[0]
	offset := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		switch {
		case d > math.Pi:
			offset -= 2 * math.Pi
		case d < -math.Pi:
			offset += 2 * math.Pi
		}
		out[i] = phase[i] + offset
	}
	return out
}

// Rotate applies a zero- and first-order phase correction in place:
//
//	phi[i] = ph0 + ph1*(i/n)
//	re'    = re*cos(phi) - im*sin(phi)
//	im'    = re*sin(phi) + im*cos(phi)
//
// Angles are in radians.
func Rotate(re, im []float64, ph0, ph1 float64) error {
	n := len(re)
	if len(im) != n {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, n, len(im))
	}
	if n == 0 {
		return nil
	}

	cosv, sinv, buf := getScratch(n)
	defer putScratch(buf)

	step := ph1 / float64(n)
	for i := 0; i < n; i++ {
		phi := ph0 + step*float64(i)
		cosv[i] = math.Cos(phi)
		sinv[i] = math.Sin(phi)
	}

	for i := 0; i < n; i++ {
		r, m := re[i], im[i]
		re[i] = r*cosv[i] - m*sinv[i]
		im[i] = r*sinv[i] + m*cosv[i]
	}
	return nil
}

// Peak is a located maximum.
type Peak struct {
	Index int
	X     float64
	Y     float64
}

// StrongestPeak returns the point of largest absolute intensity. ok is false
// for empty input or when x and y differ in length.
func StrongestPeak(x, y []float64) (Peak, bool) {
	if len(y) == 0 || len(x) != len(y) {
		return Peak{}, false
	}
	best := 0
	for i := 1; i < len(y); i++ {
		if math.Abs(y[i]) > math.Abs(y[best]) {
			best = i
		}
	}
	return Peak{Index: best, X: x[best], Y: y[best]}, true
}

// LocalMaxima returns the indices of points strictly greater than both
// neighbours and above threshold, strongest first.
func LocalMaxima(y []float64, threshold float64) []int {
	var idx []int
	for i := 1; i+1 < len(y); i++ {
		if y[i] > threshold && y[i] > y[i-1] && y[i] > y[i+1] {
			idx = append(idx, i)
		}
	}
	// insertion sort keeps this allocation-free and stable for short lists
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && y[idx[j]] > y[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}
