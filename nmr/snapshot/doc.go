// Package snapshot implements point-in-time views of a filter chain and the
// live preview sessions used by interactive tools.
//
// A snapshot pointer pauses a spectrum's chain at one record: derived data
// reflects only the selected prefix while the records stay untouched. A
// Session builds on that. It rolls the target spectrum back to before the
// record being edited and keeps a temporary copy of every spectrum's state
// that Preview writes into. Commit promotes the previewed options into the
// chain, Cancel discards them and restores the full chain.
package snapshot
