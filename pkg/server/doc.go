// Package server provides the optional ops endpoint for a running audit:
// Prometheus metrics plus liveness and readiness probes. It carries no
// audit functionality of its own.
package server
