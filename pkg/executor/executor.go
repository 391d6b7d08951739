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
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/errors"
)

// Executor runs one collector invocation under a deadline, retries transient
// failures with exponential backoff, and falls through the collector's
// ordered strategy tiers when the current one is exhausted.
type Executor struct{}

// New creates an Executor.
func New() *Executor {
	return &Executor{}
}

// Execute runs the task to its single terminal outcome. Every retry and
// fallback transition is recorded on the result trail; only the terminal
// status is meaningful to callers. Execute never returns an error: failures
// are expressed through the result status and category.
func (e *Executor) Execute(ctx context.Context, task TaskDescriptor) *TaskResult {
	start := time.Now()

	res := &TaskResult{
		TargetID:  task.Target.ID,
		Collector: task.Collector.Name(),
	}

	timeout := task.Timeout
	if timeout <= 0 {
		timeout = defaults.TaskTimeoutFloor
	}

	tiers := task.Collector.Tiers()
	if tiers < 1 {
		tiers = 1
	}

	var lastErr error
	for tier := 1; tier <= tiers; tier++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		payload, err := e.runTier(ctx, task, tier, timeout, res)
		if err == nil {
			e.finishSuccess(res, tier, start)
			return res
		}
		lastErr = err

		if tier < tiers {
			slog.Debug("strategy tier exhausted, falling back",
				"target", task.Target.ID,
				"collector", res.Collector,
				"tier", tier,
				"error", err)
		}
		_ = payload
	}

	res.Status = StatusFailed
	res.ErrorCategory = errors.CodeOf(lastErr)
	if lastErr != nil {
		res.Error = lastErr.Error()
	}
	res.Remediation = errors.Remediation(res.ErrorCategory)
	res.Elapsed = time.Since(start)

	taskExecutionsTotal.WithLabelValues(string(StatusFailed)).Inc()
	taskDuration.WithLabelValues(res.Collector).Observe(res.Elapsed.Seconds())

	slog.Debug("task failed on all strategies",
		"target", task.Target.ID,
		"collector", res.Collector,
		"category", string(res.ErrorCategory),
		"attempts", res.Attempts)

	return res
}

// finishSuccess fills the result for a tier that satisfied the request. The
// primary tier yields Success; any other tier yields PartiallyDegraded with
// a note naming the fallback used.
func (e *Executor) finishSuccess(res *TaskResult, tier int, start time.Time) {
	res.FallbackTier = tier
	if tier == 1 {
		res.Status = StatusSuccess
	} else {
		res.Status = StatusPartiallyDegraded
		res.Note = fmt.Sprintf("primary data source unavailable, result obtained via fallback strategy tier %d", tier)
	}
	res.Elapsed = time.Since(start)

	taskExecutionsTotal.WithLabelValues(string(res.Status)).Inc()
	taskDuration.WithLabelValues(res.Collector).Observe(res.Elapsed.Seconds())
	fallbackTierUsed.WithLabelValues(res.Collector).Observe(float64(tier))
}

// runTier runs one strategy tier with retries. The retry counter resets for
// each tier. Returns the payload on success, or the last attempt error once
// the tier is exhausted or a fatal category surfaces.
func (e *Executor) runTier(ctx context.Context, task TaskDescriptor, tier int, timeout time.Duration, res *TaskResult) (any, error) {
	policy := task.Retry
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = defaults.RetryBaseDelay
	}

	var payload any
	attemptInTier := 0
	unknownRetried := false

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(policy.MaxRetries)+1),
		retry.Delay(policy.BaseDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			code := errors.CodeOf(err)
			if code.Retryable() {
				return true
			}
			// Unknown failures get a single conservative retry per tier.
			if code == errors.ErrCodeUnknown && !unknownRetried {
				unknownRetried = true
				return true
			}
			return false
		}),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			d := retry.BackOffDelay(n, err, config)
			// Attach the planned backoff to the attempt that just failed.
			if len(res.Trail) > 0 {
				res.Trail[len(res.Trail)-1].Backoff = d
			}
			return d
		}),
	)

	doErr := r.Do(func() error {
		attemptInTier++
		res.Attempts++
		taskAttemptsTotal.WithLabelValues(res.Collector).Inc()

		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		p, err := task.Collector.Invoke(actx, task.Target, task.Auth, tier)
		if err != nil {
			res.Trail = append(res.Trail, Attempt{
				Tier:     tier,
				Number:   attemptInTier,
				Category: errors.CodeOf(err),
				Error:    err.Error(),
			})
			return err
		}

		payload = p
		res.Payload = p
		res.Trail = append(res.Trail, Attempt{
			Tier:   tier,
			Number: attemptInTier,
		})
		return nil
	})

	if doErr != nil {
		return nil, doErr
	}
	return payload, nil
}
