// Package filter is the catalog of spectral filter kinds.
//
// Each kind is a closed, named transformation with its own typed options
// payload. A [Kind] reports whether it applies to a given [datum.State],
// applies itself in place, and optionally folds a follow-up request into a
// previous record of the same kind ("once" semantics, see [Kind.Reduce]).
//
// Kinds are looked up through a [Registry]. [DefaultRegistry] returns the
// built-in catalog:
//
//	shiftX, zeroFilling, apodization, digitalFilter, fft, phaseCorrection,
//	baselineCorrection, exclusionZones, centerMean, standardDeviation,
//	pareto, fromTo, equallySpaced, shift2DX, shift2DY
//
// Kernels are deterministic: the same state and options always produce
// bit-identical output. Cross-spectrum behaviour (for example broadcasting
// exclusion zones to a group) is left to callers.
package filter
