// Package profile measures a target's available compute, memory, storage,
// and network headroom and derives a safety budget: the maximum concurrency
// and per-task timeout an audit may safely use against that host.
//
// # Derivation
//
// Base concurrency comes from a monotonic step function over processor
// count. Detected constraints (low memory, high utilization, slow or full
// storage, high network latency, high load) only ever adjust the value
// downward, and the result is floored at 1. The per-task timeout is looked
// up from the derived tier; lower tiers get longer timeouts because slower
// hosts need more time per operation, not less.
//
// # Caching
//
// Profiles are cached in an explicitly supplied Cache keyed by target
// identifier. An entry younger than the TTL (default 24h) is returned
// unchanged with CachedResult set; stale entries are discarded and
// recomputed, never patched.
//
// # Failure behavior
//
// Sub-probe failures degrade individual readings to worst-case assumptions.
// Only when every sub-probe fails does the profiler fall back to the
// conservative default profile (tier Low, concurrency 1). Profiling failure
// never blocks the audit.
package profile
