// Package collector implements the built-in audit collectors. Each one is a
// pure, idempotent query over the transport's authenticated channel with an
// ordered list of data-source strategies: a structured query first, then a
// legacy text-parsing fallback, and for some collectors a minimal
// best-effort last resort. Strategy selection and deadline enforcement
// belong to the executor, not to the collectors.
package collector
