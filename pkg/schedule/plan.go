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

package schedule

import (
	"time"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/profile"
	"github.com/fleetscout/fleetscout/pkg/target"
)

// Lane is the per-target execution slot set. Tasks inside one lane run
// concurrently up to the lane's own bound, independent of other lanes.
type Lane struct {
	Target target.Target

	// Concurrency bounds simultaneous tasks against this target.
	Concurrency int

	Tasks []executor.TaskDescriptor
}

// ExecutionPlan is the admission controller's output: one lane per target
// plus the fleet-wide ceiling. Recomputed on every invocation, never
// persisted.
type ExecutionPlan struct {
	Lanes        []Lane
	FleetCeiling int
	CreatedAt    time.Time
}

// TaskCount returns the total number of tasks across all lanes.
func (p *ExecutionPlan) TaskCount() int {
	n := 0
	for _, l := range p.Lanes {
		n += len(l.Tasks)
	}
	return n
}

// PlanOptions tunes plan construction.
type PlanOptions struct {
	// ConcurrencyOverride, when positive, replaces the profile-derived
	// per-target concurrency for every lane.
	ConcurrencyOverride int

	// FleetCeiling caps simultaneous tasks across all lanes. Zero selects
	// the default.
	FleetCeiling int

	// Retry is the retry policy stamped onto every task.
	Retry executor.RetryPolicy
}

// Plan builds one lane per target over the collector catalog. Effective
// per-target concurrency resolves as: caller override, else the profile's
// safe concurrency, else 1. Per-task timeouts come from the profile's tier,
// falling back to the floor when no profile is available.
func Plan(targets []target.Target, auth target.AuthContext, catalog []executor.Collector,
	profiles map[string]*profile.CapabilityProfile, opts PlanOptions) *ExecutionPlan {

	ceiling := opts.FleetCeiling
	if ceiling < 1 {
		ceiling = defaults.FleetConcurrencyCeiling
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = executor.DefaultRetryPolicy()
	}

	plan := &ExecutionPlan{
		FleetCeiling: ceiling,
		CreatedAt:    time.Now().UTC(),
	}

	for _, tgt := range targets {
		prof := profiles[tgt.ID]

		conc := 1
		timeout := defaults.TaskTimeoutFloor
		switch {
		case opts.ConcurrencyOverride > 0:
			conc = opts.ConcurrencyOverride
			if prof != nil && prof.TaskTimeout > 0 {
				timeout = prof.TaskTimeout
			}
		case prof != nil:
			if prof.SafeConcurrency > 0 {
				conc = prof.SafeConcurrency
			}
			if prof.TaskTimeout > 0 {
				timeout = prof.TaskTimeout
			}
		}

		lane := Lane{
			Target:      tgt,
			Concurrency: conc,
			Tasks:       make([]executor.TaskDescriptor, 0, len(catalog)),
		}
		for _, c := range catalog {
			lane.Tasks = append(lane.Tasks, executor.TaskDescriptor{
				Target:    tgt,
				Auth:      auth,
				Collector: c,
				Timeout:   timeout,
				Retry:     retry,
			})
		}
		plan.Lanes = append(plan.Lanes, lane)
	}

	tasksPlannedTotal.Add(float64(plan.TaskCount()))
	return plan
}
