// Package spectrum provides frequency-domain helpers for complex spectra
// stored as separate real and imaginary channels.
//
// The package does not implement the FFT itself; see package fft.
package spectrum
