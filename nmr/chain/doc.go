// Package chain holds the per-spectrum filter chain and the replay engine.
//
// A [Spectrum] owns immutable raw data, an ordered list of [Record]s and the
// derived state that replaying the enabled records over the raw data
// produces. The invariant the package maintains is
//
//	Derived == Replay(raw, Records[:active])
//
// where active is the whole chain, or the prefix selected by a snapshot
// pointer.
//
// Operations never modify the spectrum they are given. They work on a
// clone and return it on success, so a failed operation leaves the caller's
// value untouched.
package chain
