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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admission and pressure metrics
	fleetCeiling = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetscout_fleet_concurrency_ceiling",
			Help: "Current fleet-wide concurrency ceiling",
		},
	)

	throttleEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetscout_pressure_throttle_events_total",
			Help: "Number of times local pressure reduced the fleet ceiling",
		},
	)

	tasksPlannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetscout_tasks_planned_total",
			Help: "Total tasks placed into execution plans",
		},
	)

	tasksSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetscout_tasks_skipped_total",
			Help: "Tasks never admitted before run cancellation",
		},
	)
)
