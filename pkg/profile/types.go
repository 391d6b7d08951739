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

package profile

import (
	"time"

	"github.com/fleetscout/fleetscout/pkg/defaults"
)

// Tier is the ordinal resource-capacity classification of a target.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierVeryHigh
)

// String returns the human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	case TierVeryHigh:
		return "VeryHigh"
	default:
		return "Unknown"
	}
}

// CapabilityProfile is a snapshot of a target's resource headroom and the
// safety budget derived from it. Profiles are immutable once captured; a
// stale profile is discarded and recomputed, never patched.
type CapabilityProfile struct {
	TargetID string `json:"target_id" yaml:"target_id"`

	// Raw sub-probe readings. Zero values mean the probe failed and the
	// conservative default was assumed.
	Processors        int     `json:"processors" yaml:"processors"`
	MemoryTotalKB     uint64  `json:"memory_total_kb" yaml:"memory_total_kb"`
	MemoryAvailableKB uint64  `json:"memory_available_kb" yaml:"memory_available_kb"`
	StorageFreePct    float64 `json:"storage_free_pct" yaml:"storage_free_pct"`
	StorageLatencyMS  int64   `json:"storage_latency_ms" yaml:"storage_latency_ms"`
	NetworkRTTMS      int64   `json:"network_rtt_ms" yaml:"network_rtt_ms"`
	LoadPerCore       float64 `json:"load_per_core" yaml:"load_per_core"`

	// Derived safety budget.
	Tier            Tier          `json:"tier" yaml:"tier"`
	SafeConcurrency int           `json:"safe_concurrency" yaml:"safe_concurrency"`
	TaskTimeout     time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// Constraints lists the detected conditions that reduced the budget.
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`

	// CachedResult is true when the profile was served from the cache
	// instead of fresh sub-probes. Not persisted.
	CachedResult bool `json:"-" yaml:"-"`
}

// Age returns how long ago the profile was captured.
func (p *CapabilityProfile) Age() time.Duration {
	return time.Since(p.CapturedAt)
}

// Policy holds the tunable derivation tables for the profiler. The numeric
// values are reasonable defaults, not a contract; callers may override any
// of them through configuration.
type Policy struct {
	// TTL is how long cached profiles stay valid.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// SubProbeTimeout bounds each individual sub-probe.
	SubProbeTimeout time.Duration `mapstructure:"sub_probe_timeout" yaml:"sub_probe_timeout"`

	// TimeoutFloor is the minimum derived per-task timeout.
	TimeoutFloor time.Duration `mapstructure:"timeout_floor" yaml:"timeout_floor"`

	// MaxConcurrency caps the step function output.
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// LowMemoryKB is the available-memory threshold below which concurrency
	// is halved.
	LowMemoryKB uint64 `mapstructure:"low_memory_kb" yaml:"low_memory_kb"`

	// HighMemoryUtilization halves concurrency when exceeded.
	HighMemoryUtilization float64 `mapstructure:"high_memory_utilization" yaml:"high_memory_utilization"`

	// LowStorageFreePct halves concurrency when free space drops below it.
	LowStorageFreePct float64 `mapstructure:"low_storage_free_pct" yaml:"low_storage_free_pct"`

	// HighStorageLatencyMS halves concurrency when exceeded.
	HighStorageLatencyMS int64 `mapstructure:"high_storage_latency_ms" yaml:"high_storage_latency_ms"`

	// HighNetworkRTTMS forces concurrency to 1 when exceeded.
	HighNetworkRTTMS int64 `mapstructure:"high_network_rtt_ms" yaml:"high_network_rtt_ms"`

	// HighLoadPerCore halves concurrency when exceeded.
	HighLoadPerCore float64 `mapstructure:"high_load_per_core" yaml:"high_load_per_core"`

	// TierTimeouts maps each tier to its per-task timeout. Lower tiers get
	// longer timeouts since slower hosts need more time per operation.
	TierTimeouts map[Tier]time.Duration `mapstructure:"-" yaml:"-"`
}

// DefaultPolicy returns the default derivation policy.
func DefaultPolicy() Policy {
	return Policy{
		TTL:                   defaults.ProfileCacheTTL,
		SubProbeTimeout:       defaults.SubProbeTimeout,
		TimeoutFloor:          defaults.TaskTimeoutFloor,
		MaxConcurrency:        8,
		LowMemoryKB:           2 * 1024 * 1024, // 2GB
		HighMemoryUtilization: 0.90,
		LowStorageFreePct:     10,
		HighStorageLatencyMS:  250,
		HighNetworkRTTMS:      200,
		HighLoadPerCore:       1.5,
		TierTimeouts: map[Tier]time.Duration{
			TierLow:      180 * time.Second,
			TierMedium:   120 * time.Second,
			TierHigh:     60 * time.Second,
			TierVeryHigh: 30 * time.Second,
		},
	}
}
