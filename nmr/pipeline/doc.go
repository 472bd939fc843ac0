// Package pipeline is the command and query boundary of the filter engine.
//
// A Pipeline owns a set of spectra. Every command names its target
// explicitly, either a spectrum id or a nucleus group, and runs to
// completion before returning. Each spectrum is guarded by its own lock so
// at most one mutation is in flight per spectrum; group commands fan out
// across spectra with bounded concurrency and are atomic per spectrum but
// best-effort across the group. Queries return deep copies that are never
// observed mid-mutation.
//
// Commands are logged through log/slog, counted in Prometheus and wrapped in
// OpenTelemetry spans. All three default to no-ops.
package pipeline
