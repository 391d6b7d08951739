// Package run orchestrates one audit session end to end: pre-flight health
// gate, capability profiling, admission planning, resilient execution, and
// sink consolidation. A run always completes and emits a summary, even when
// every target fails; only an empty target list, a strict-policy health
// failure, or cancellation aborts it.
package run
