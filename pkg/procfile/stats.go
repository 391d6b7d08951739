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

package procfile

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Default procfs paths, overridable for tests.
const (
	MemInfoPath = "/proc/meminfo"
	LoadAvgPath = "/proc/loadavg"
)

// MemStats describes local memory headroom as read from /proc/meminfo.
type MemStats struct {
	TotalKB     uint64
	AvailableKB uint64
}

// Utilization returns the fraction of memory in use, in [0,1].
func (m MemStats) Utilization() float64 {
	if m.TotalKB == 0 {
		return 0
	}
	return 1 - float64(m.AvailableKB)/float64(m.TotalKB)
}

// ReadMemStats parses memory totals from the meminfo file at the given path.
func ReadMemStats(path string) (MemStats, error) {
	m, err := NewParser(WithVTrimChars(" kB")).GetMap(path)
	if err != nil {
		return MemStats{}, fmt.Errorf("failed to read meminfo: %w", err)
	}

	var stats MemStats
	if v, ok := m["MemTotal"]; ok {
		stats.TotalKB, _ = strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	}
	if v, ok := m["MemAvailable"]; ok {
		stats.AvailableKB, _ = strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	}

	if stats.TotalKB == 0 {
		return MemStats{}, fmt.Errorf("meminfo %q missing MemTotal", path)
	}
	return stats, nil
}

// ReadLoadPerCore parses the 1-minute load average from the loadavg file at
// the given path, normalized by the local logical processor count.
func ReadLoadPerCore(path string) (float64, error) {
	lines, err := NewParser().GetLines(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read loadavg: %w", err)
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("loadavg %q is empty", path)
	}

	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return 0, fmt.Errorf("loadavg %q has no fields", path)
	}

	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse loadavg %q: %w", fields[0], err)
	}

	cores := runtime.NumCPU()
	if cores < 1 {
		cores = 1
	}
	return load / float64(cores), nil
}
