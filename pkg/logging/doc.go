// Package logging provides structured logging utilities for fleetscout components.
//
// # Overview
//
// This package wraps the standard library slog package with fleetscout-specific
// defaults and conventions for consistent logging across all components. It
// supports environment-based log level configuration, module/version context
// injection, and automatic source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("fleetscout", "v1.0.0")
//
//	    slog.Info("audit started", "targets", len(targets))
//	    slog.Debug("profile cache hit", "target", target.ID)
//	    slog.Error("run failed", "error", err)
//	}
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug fleetscout audit --targets hosts.txt
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "audit started",
//	    "module": "fleetscout",
//	    "version": "v1.0.0",
//	    "targets": 12
//	}
//
// All components share consistent logging format and configuration.
package logging
