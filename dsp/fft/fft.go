package fft

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

var (
	// ErrEmptyInput is returned for zero-length input.
	ErrEmptyInput = errors.New("fft: empty input")
	// ErrLengthMismatch is returned when real and imaginary parts differ in length.
	ErrLengthMismatch = errors.New("fft: real and imaginary length mismatch")
	// ErrNotPowerOf2 is returned when the transform size is not a power of two.
	ErrNotPowerOf2 = errors.New("fft: size must be a power of two")
)

type planPool struct {
	size int
	pool sync.Pool
}

var (
	poolsMu sync.Mutex
	pools   = map[int]*planPool{}
)

func poolFor(size int) *planPool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	p, ok := pools[size]
	if !ok {
		p = &planPool{size: size}
		pools[size] = p
	}
	return p
}

func (p *planPool) get() (*algofft.Plan[complex128], error) {
	if v := p.pool.Get(); v != nil {
		return v.(*algofft.Plan[complex128]), nil
	}

	plan, err := algofft.NewPlan64(p.size)
	if err != nil {
		return nil, fmt.Errorf("fft: failed to create plan of size %d: %w", p.size, err)
	}
	return plan, nil
}

func (p *planPool) put(plan *algofft.Plan[complex128]) {
	p.pool.Put(plan)
}

// Forward computes the forward DFT of re + i*im. The input length must be a
// power of two and im may be nil. The input slices are not modified.
func Forward(re, im []float64) (outRe, outIm []float64, err error) {
	n := len(re)
	if n == 0 {
		return nil, nil, ErrEmptyInput
	}
	if im != nil && len(im) != n {
		return nil, nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, n, len(im))
	}
	if !core.IsPowerOf2(n) {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotPowerOf2, n)
	}

	buf := make([]complex128, n)
	for i := range buf {
		var v float64
		if im != nil {
			v = im[i]
		}
		buf[i] = complex(re[i], v)
	}

	pool := poolFor(n)
	plan, err := pool.get()
	if err != nil {
		return nil, nil, err
	}
	defer pool.put(plan)

	if err := plan.Forward(buf, buf); err != nil {
		return nil, nil, fmt.Errorf("fft: transform failed: %w", err)
	}

	outRe = make([]float64, n)
	outIm = make([]float64, n)
	for i, c := range buf {
		outRe[i] = real(c)
		outIm[i] = imag(c)
	}
	return outRe, outIm, nil
}

// Shift rotates buf in place so that the zero-frequency bin moves to the
// centre (bin n/2).
func Shift(buf []float64) {
	n := len(buf)
	if n < 2 {
		return
	}
	half := n / 2
	tmp := make([]float64, half)
	copy(tmp, buf[:half])
	copy(buf, buf[half:])
	copy(buf[n-half:], tmp)
}

// Frequencies returns the bin centre frequencies in Hz of a shifted spectrum
// of n bins for the given spectral width, in ascending order.
func Frequencies(n int, spectralWidth float64) []float64 {
	if n <= 0 {
		return nil
	}
	step := spectralWidth / float64(n)
	return core.Ramp(-spectralWidth/2, step, n)
}
