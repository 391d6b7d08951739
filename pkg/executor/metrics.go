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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Task execution metrics
	taskExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetscout_task_executions_total",
			Help: "Total number of tasks by terminal status",
		},
		[]string{"status"}, // success, failed, partially_degraded
	)

	taskAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetscout_task_attempts_total",
			Help: "Total collector invocations including retries and fallbacks",
		},
		[]string{"collector"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetscout_task_duration_seconds",
			Help:    "Wall-clock time per task from first attempt to terminal outcome",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"collector"},
	)

	fallbackTierUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetscout_task_fallback_tier",
			Help:    "Strategy tier that satisfied each successful task (1 = primary)",
			Buckets: []float64{1, 2, 3, 4},
		},
		[]string{"collector"},
	)
)
