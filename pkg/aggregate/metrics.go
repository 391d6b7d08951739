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

package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Result sink metrics
	sinkRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetscout_sink_records_total",
			Help: "Total result records appended to the sink",
		},
	)

	sinkFlushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetscout_sink_flushes_total",
			Help: "Total non-empty buffer flushes to the sink",
		},
	)

	sinkBufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetscout_sink_buffer_size",
			Help: "Effective sink buffer size after pressure adjustments",
		},
	)
)
