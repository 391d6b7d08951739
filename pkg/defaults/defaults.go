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

package defaults

import "time"

// Profiler timeouts and cache settings.
const (
	// SubProbeTimeout bounds each individual capability sub-probe
	// (processors, memory, storage, network).
	SubProbeTimeout = 5 * time.Second

	// ProfileCacheTTL is how long a cached capability profile stays valid.
	ProfileCacheTTL = 24 * time.Hour

	// TaskTimeoutFloor is the minimum per-task timeout regardless of tier.
	TaskTimeoutFloor = 30 * time.Second
)

// Health gate timeouts and throttle.
const (
	// HealthCheckTimeout bounds each individual pre-flight check stage.
	HealthCheckTimeout = 10 * time.Second

	// HealthCheckThrottle caps how many targets are validated concurrently.
	HealthCheckThrottle = 8
)

// Scheduler settings for fleet-wide admission control.
const (
	// FleetConcurrencyCeiling is the default fleet-wide concurrency limit,
	// independent of per-target limits.
	FleetConcurrencyCeiling = 16

	// PressureSampleInterval is how often the local pressure monitor samples
	// CPU and memory utilization.
	PressureSampleInterval = 5 * time.Second

	// CPUHighWaterMark is the local CPU load-per-core above which the
	// scheduler throttles the fleet ceiling.
	CPUHighWaterMark = 0.85

	// MemoryHighWaterMark is the local memory utilization fraction above
	// which the scheduler throttles the fleet ceiling.
	MemoryHighWaterMark = 0.90
)

// Executor retry policy defaults.
const (
	// MaxRetries is the retry count per strategy tier for retryable failures.
	MaxRetries = 3

	// RetryBaseDelay is the initial backoff delay, doubled on each attempt.
	RetryBaseDelay = 2 * time.Second
)

// Aggregator buffering defaults.
const (
	// SinkBufferSize is the number of results buffered before a flush.
	SinkBufferSize = 32

	// SinkFlushInterval is the maximum latency between flushes.
	SinkFlushInterval = 10 * time.Second
)

// Transport timeouts for remote host access.
const (
	// ResolveTimeout bounds name resolution.
	ResolveTimeout = 5 * time.Second

	// ProbeTimeout bounds the lightweight reachability probe.
	ProbeTimeout = 5 * time.Second

	// QueryTimeout is the default timeout for a single remote query when the
	// caller supplies no deadline of its own.
	QueryTimeout = 30 * time.Second
)

// CLI timeouts for command-line operations.
const (
	// AuditTimeout is the default timeout for a full audit run.
	AuditTimeout = 30 * time.Minute
)
