// Package fft provides the complex Fourier transform used by spectrum
// processing, backed by algo-fft plans.
//
// Plans are cached per size and reused; transforms on the same size from
// different goroutines each take their own plan from a pool.
package fft
