// Package interp provides interpolation primitives for resampling sampled
// axes.
//
//   - [Linear]:   piecewise-linear resampling onto arbitrary query points
//   - [Grid]:     evenly spaced query points between two bounds
package interp
