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
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fleetscout/fleetscout/pkg/executor"
)

// Sink consumes task results as they arrive. Implementations must be safe
// for concurrent use; the scheduler preserves no ordering beyond arrival.
type Sink interface {
	Add(res *executor.TaskResult) error
}

// Scheduler dispatches an ExecutionPlan: one worker group per lane bounded
// by the lane's per-target concurrency, every admission additionally gated
// by the fleet-wide ceiling.
type Scheduler struct {
	Executor *executor.Executor
	Gate     *FleetGate
}

// NewScheduler creates a scheduler over the given fleet gate.
func NewScheduler(gate *FleetGate) *Scheduler {
	return &Scheduler{
		Executor: executor.New(),
		Gate:     gate,
	}
}

// Run executes the plan to completion, sending every result to the sink.
// Individual task failures never abort the run; only context cancellation
// or a sink failure does. Tasks never admitted before cancellation are
// recorded as skipped.
func (s *Scheduler) Run(ctx context.Context, plan *ExecutionPlan, sink Sink) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, lane := range plan.Lanes {
		g.Go(func() error {
			return s.runLane(gctx, lane, sink)
		})
	}

	return g.Wait()
}

func (s *Scheduler) runLane(ctx context.Context, lane Lane, sink Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := lane.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	slog.Debug("lane dispatching",
		"target", lane.Target.ID,
		"concurrency", limit,
		"tasks", len(lane.Tasks))

	for _, task := range lane.Tasks {
		g.Go(func() error {
			if err := s.Gate.Acquire(gctx); err != nil {
				skip := &executor.TaskResult{
					TargetID:  task.Target.ID,
					Collector: task.Collector.Name(),
					Status:    executor.StatusSkipped,
					Error:     err.Error(),
				}
				tasksSkippedTotal.Inc()
				if serr := sink.Add(skip); serr != nil {
					return serr
				}
				return err
			}
			defer s.Gate.Release()

			return sink.Add(s.Executor.Execute(gctx, task))
		})
	}

	return g.Wait()
}
