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
	"time"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/procfile"
)

// Sampler reports local resource pressure: CPU load per core and memory
// utilization, both as fractions where 1.0 means fully consumed.
type Sampler interface {
	Sample() (cpu, mem float64, err error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func() (cpu, mem float64, err error)

func (f SamplerFunc) Sample() (float64, float64, error) { return f() }

// localSampler reads pressure from the local proc filesystem.
type localSampler struct{}

// NewLocalSampler returns a Sampler backed by /proc/loadavg and
// /proc/meminfo.
func NewLocalSampler() Sampler {
	return localSampler{}
}

func (localSampler) Sample() (float64, float64, error) {
	cpu, err := procfile.ReadLoadPerCore(procfile.LoadAvgPath)
	if err != nil {
		return 0, 0, err
	}
	mem, err := procfile.ReadMemStats(procfile.MemInfoPath)
	if err != nil {
		return 0, 0, err
	}
	return cpu, mem.Utilization(), nil
}

// PressureMonitor periodically samples local resource pressure and adjusts
// the fleet gate's ceiling: down by a large step while either watermark is
// exceeded, up by a small step once pressure clears. Sample failures leave
// the ceiling untouched.
type PressureMonitor struct {
	Sampler  Sampler
	Interval time.Duration

	// CPUHighWaterMark and MemoryHighWaterMark are the fractions above
	// which the gate is throttled.
	CPUHighWaterMark    float64
	MemoryHighWaterMark float64

	gate *FleetGate
}

// NewPressureMonitor creates a monitor over the given gate with default
// sampling interval and watermarks, reading local pressure from procfs.
func NewPressureMonitor(gate *FleetGate) *PressureMonitor {
	return &PressureMonitor{
		Sampler:             NewLocalSampler(),
		Interval:            defaults.PressureSampleInterval,
		CPUHighWaterMark:    defaults.CPUHighWaterMark,
		MemoryHighWaterMark: defaults.MemoryHighWaterMark,
		gate:                gate,
	}
}

// Run samples until the context is cancelled. Call in its own goroutine for
// the duration of plan execution.
func (m *PressureMonitor) Run(ctx context.Context) {
	t := time.NewTicker(m.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.tick()
		}
	}
}

func (m *PressureMonitor) tick() {
	cpu, mem, err := m.Sampler.Sample()
	if err != nil {
		slog.Debug("pressure sample failed", "error", err)
		return
	}

	if cpu > m.CPUHighWaterMark || mem > m.MemoryHighWaterMark {
		next := m.gate.throttle()
		throttleEventsTotal.Inc()
		slog.Info("local pressure high, throttling fleet ceiling",
			"cpu", cpu,
			"memory", mem,
			"ceiling", next)
		return
	}

	if m.gate.Ceiling() < m.gate.Max() {
		next := m.gate.recover()
		slog.Debug("pressure cleared, recovering fleet ceiling", "ceiling", next)
	}
}
