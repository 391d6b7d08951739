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

package executor

import (
	"context"
	"time"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
)

// Collector is the black-box data-gathering operation invoked by the
// executor. Implementations must be pure, idempotent queries; deadline
// enforcement is the executor's responsibility, not the collector's.
type Collector interface {
	// Name identifies the collector in results and reports.
	Name() string

	// Invoke runs the query against the target using the given strategy
	// tier (1 is the preferred data source; higher tiers are fallbacks).
	Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error)

	// Tiers returns how many strategy tiers the collector supports.
	Tiers() int
}

// RetryPolicy controls per-strategy retry behavior.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt for
	// retryable failure categories.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// BaseDelay is the initial backoff delay, doubled on each retry.
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

// DefaultRetryPolicy returns the default retry policy (3 retries, 2s base).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaults.MaxRetries,
		BaseDelay:  defaults.RetryBaseDelay,
	}
}

// TaskDescriptor is one (target, collector) pairing to execute. Immutable
// once enqueued.
type TaskDescriptor struct {
	Target    target.Target
	Auth      target.AuthContext
	Collector Collector

	// Timeout is the per-attempt deadline assigned by the scheduler from
	// the target's capability profile.
	Timeout time.Duration

	// Retry is the retry policy for retryable failure categories.
	Retry RetryPolicy
}

// Status is the terminal state of a task.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusFailed            Status = "failed"
	StatusSkipped           Status = "skipped"
	StatusPartiallyDegraded Status = "partially_degraded"
)

// Attempt records one collector invocation for observability. The full
// trail is carried on the result; only the terminal outcome matters to
// callers.
type Attempt struct {
	// Tier is the strategy tier the attempt ran under.
	Tier int `json:"tier"`

	// Number is the 1-based attempt number within the tier.
	Number int `json:"number"`

	// Category classifies the failure; empty on success.
	Category errors.ErrorCode `json:"category,omitempty"`

	// Error is the failure description; empty on success.
	Error string `json:"error,omitempty"`

	// Backoff is the delay waited before the next attempt, zero for the
	// last attempt of a tier.
	Backoff time.Duration `json:"backoff,omitempty"`
}

// TaskResult is the single terminal outcome of one TaskDescriptor.
type TaskResult struct {
	TargetID  string `json:"target_id" yaml:"target_id"`
	Collector string `json:"collector" yaml:"collector"`

	Status Status `json:"status" yaml:"status"`

	// FallbackTier is the strategy tier that satisfied the request
	// (1 = primary). Zero when the task never succeeded.
	FallbackTier int `json:"fallback_tier,omitempty" yaml:"fallback_tier,omitempty"`

	// Note explains which fallback was used; always non-empty for
	// partially degraded results.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// Payload is the normalized record produced by the collector.
	Payload any `json:"payload,omitempty" yaml:"payload,omitempty"`

	// ErrorCategory and Remediation describe the terminal failure.
	ErrorCategory errors.ErrorCode `json:"error_category,omitempty" yaml:"error_category,omitempty"`
	Error         string           `json:"error,omitempty" yaml:"error,omitempty"`
	Remediation   string           `json:"remediation,omitempty" yaml:"remediation,omitempty"`

	// Attempts is the total number of collector invocations across all
	// strategy tiers.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Trail records every attempt, including retries and fallback
	// transitions, for observability.
	Trail []Attempt `json:"trail,omitempty" yaml:"trail,omitempty"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}
