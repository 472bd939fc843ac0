// Package datum defines the numeric state of one spectrum: acquisition
// metadata plus the 1D (x, re, im) or 2D (z matrix) buffers that filters
// operate on.
//
// A State is a plain value. Filters mutate a State in place; callers that
// need isolation take a [State.Clone] first.
package datum
