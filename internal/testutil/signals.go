package testutil

import (
	"math"
	"math/rand"
)

// Resonance describes one decaying complex exponential of a synthetic FID.
type Resonance struct {
	FreqHz    float64
	Amplitude float64
	DecayHz   float64 // exp(-pi*DecayHz*t) envelope
	PhaseRad  float64
}

// FID generates a deterministic complex free induction decay sampled every
// dwell seconds. x holds the sample times.
func FID(n int, dwell float64, resonances ...Resonance) (x, re, im []float64) {
	x = make([]float64, n)
	re = make([]float64, n)
	im = make([]float64, n)
	for i := range x {
		t := float64(i) * dwell
		x[i] = t
		for _, r := range resonances {
			env := r.Amplitude * math.Exp(-math.Pi*r.DecayHz*t)
			arg := 2*math.Pi*r.FreqHz*t + r.PhaseRad
			re[i] += env * math.Cos(arg)
			im[i] += env * math.Sin(arg)
		}
	}
	return x, re, im
}

// Lorentzian returns absorption-mode Lorentzian lines evaluated at x.
func Lorentzian(x []float64, center, width, height float64) []float64 {
	out := make([]float64, len(x))
	hw := width / 2
	for i, v := range x {
		d := v - center
		out[i] = height * hw * hw / (d*d + hw*hw)
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Sequence returns [start, start+1, ..., start+n-1].
func Sequence(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
