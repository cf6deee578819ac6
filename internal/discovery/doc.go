// Package discovery reconciles best-effort local hints about candidate
// device addresses with the authoritative on-chain registry.
//
// # Hint Store
//
// Discovery hints are an ordered set per scope: one scope per owner plus a
// global marketplace scope. Adding an address already in a scope is a no-op,
// and reading an absent scope yields an empty list. The SQLite
// implementation relies on a UNIQUE constraint for atomic idempotence.
//
// # Reconciliation Engine
//
// The engine turns candidate address lists into hydrated device records via
// a bounded concurrent fan-out against the registry client. A batch never
// fails as a whole: addresses that cannot be hydrated (stale hints, network
// faults, decode failures) are logged and skipped, and the output preserves
// the input order of the survivors. Telemetry stats are attached when a
// StatsSource is configured; otherwise hydrated devices carry nil stats
// rather than fabricated values.
package discovery
