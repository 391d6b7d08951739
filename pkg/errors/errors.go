// Copyright (c) 2025, Fleetscout Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeTransientNetwork indicates a transient network-level failure
	// (connection reset, temporary DNS failure, packet loss).
	ErrCodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
	// ErrCodeTransientEndpoint indicates the remote endpoint is temporarily
	// unable to serve the request (busy, restarting, throttling).
	ErrCodeTransientEndpoint ErrorCode = "TRANSIENT_ENDPOINT"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUnauthorized indicates authentication or authorization failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeNotFound indicates a requested resource or capability was not
	// found or is unsupported on the remote host.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates malformed or invalid input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnknown indicates an unclassified failure. Unknown failures are
	// retried once, then treated as fatal for the current strategy.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// remediations maps error codes to actionable hints surfaced to operators
// instead of raw error chains.
var remediations = map[ErrorCode]string{
	ErrCodeTransientNetwork:  "verify network path to the target and retry; transient failures usually clear on their own",
	ErrCodeTransientEndpoint: "verify the remote management service is not overloaded or restarting",
	ErrCodeTimeout:           "increase the per-task timeout or reduce concurrency against the target",
	ErrCodeUnauthorized:      "verify credentials and remote admin group membership",
	ErrCodeNotFound:          "verify the remote management service is enabled and the firewall allows the management port",
	ErrCodeInvalidInput:      "verify the target identifier and collector arguments",
	ErrCodeUnknown:           "inspect the attached cause; the failure did not match a known category",
}

// Remediation returns a human-readable remediation hint for the given code.
func Remediation(code ErrorCode) string {
	if hint, ok := remediations[code]; ok {
		return hint
	}
	return remediations[ErrCodeUnknown]
}

// Retryable reports whether the code is eligible for retry with backoff.
// Unknown is handled separately by the executor (retried once).
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeTransientNetwork, ErrCodeTransientEndpoint, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Context deadline errors classify as Timeout. Errors without a
// StructuredError in their chain classify as Unknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	return ErrCodeUnknown
}
