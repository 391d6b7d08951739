// Package health implements the pre-flight health gate: cheap reachability
// and authentication checks that short-circuit doomed targets before
// expensive collection work starts.
//
// Checks run per target in fail-fast priority order (name resolution, basic
// reachability, remote-management endpoint, authentication probe). A failure
// at an earlier stage skips the later stages for that target but never
// blocks evaluation of other targets; all targets are checked concurrently
// under a small fixed throttle.
//
// Each target receives a 0-100 health score and, on failure, a remediation
// hint keyed by the failed stage. Whether unhealthy targets abort the run
// (strict mode) or are skipped (lenient mode) is the caller's policy.
package health
