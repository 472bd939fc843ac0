// Package persist encodes a spectrum's raw data and filter chain as a JSON
// or YAML document. Derived data is never stored: decoding replays the
// chain from the raw buffers.
package persist
