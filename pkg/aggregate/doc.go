// Package aggregate streams task results to an append-only newline-delimited
// JSON sink and consolidates the sink into a run summary.
//
// The writer buffers results and flushes when the buffer fills or a flush
// interval elapses, bounding both memory and result latency. Each record is
// one independent line, so a partially written run remains partially
// readable. Under local memory pressure the effective buffer shrinks (never
// below one entry) to force smaller, more frequent flushes.
//
// Consolidate re-reads the sink to compute success/failure counts,
// per-target and per-collector breakdowns, and a 0-100 health score. It is
// idempotent and tolerates a trailing incomplete record from an interrupted
// run.
package aggregate
