// Package executor runs collector invocations to a single terminal outcome.
//
// Each task carries a per-attempt deadline assigned by the scheduler, a
// retry policy for transient failure categories (exponential backoff, base
// delay doubled on each retry), and the collector's ordered strategy tiers.
// When one tier is exhausted the executor falls through to the next with a
// fresh retry counter; a success on any tier past the first is reported as
// partially degraded. The full attempt trail is recorded on the result for
// observability, but callers only act on the terminal status.
package executor
