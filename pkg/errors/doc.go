// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Errors carry a category code from a fixed taxonomy. Transient network,
// transient endpoint, and timeout failures are retryable; authorization,
// not-found, and invalid-input failures are fatal for the strategy that
// produced them. Every code maps to a remediation hint surfaced in reports.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "failed to collect service state",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "collector": "services",
//	        "target":    target.ID,
//	    },
//	)
package errors
