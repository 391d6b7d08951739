// Package schedule is the admission controller: it turns a target set and a
// collector catalog into an execution plan of per-target lanes, dispatches
// the plan under a fleet-wide concurrency ceiling, and throttles that
// ceiling dynamically when the local machine comes under CPU or memory
// pressure.
//
// Per-target concurrency resolves as caller override, then the capability
// profile's safe concurrency, then 1. The fleet ceiling is published as a
// single atomic value adjusted only by the background pressure monitor:
// halved while a watermark is exceeded, recovered one slot at a time once
// pressure clears, always within [1, configured max].
package schedule
