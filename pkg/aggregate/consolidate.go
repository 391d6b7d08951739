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
	"bufio"
	"encoding/json"
	"math"
	"os"
	"sort"
	"time"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/header"
)

// TargetSummary is the per-target result breakdown.
type TargetSummary struct {
	Success           int `json:"success" yaml:"success"`
	Failed            int `json:"failed" yaml:"failed"`
	Skipped           int `json:"skipped" yaml:"skipped"`
	PartiallyDegraded int `json:"partially_degraded" yaml:"partially_degraded"`
}

// Summary is the consolidated view of one result sink.
type Summary struct {
	header.Header `json:",inline" yaml:",inline"`

	Results           int `json:"results" yaml:"results"`
	Success           int `json:"success" yaml:"success"`
	Failed            int `json:"failed" yaml:"failed"`
	Skipped           int `json:"skipped" yaml:"skipped"`
	PartiallyDegraded int `json:"partially_degraded" yaml:"partially_degraded"`

	// Targets maps target identifier to its breakdown.
	Targets map[string]TargetSummary `json:"targets" yaml:"targets"`

	// CollectorFailures maps collector name to failure count, only for
	// collectors that failed at least once.
	CollectorFailures map[string]int `json:"collector_failures,omitempty" yaml:"collector_failures,omitempty"`

	// FailedTargets lists targets with at least one failure, sorted.
	FailedTargets []string `json:"failed_targets,omitempty" yaml:"failed_targets,omitempty"`

	// HealthScore is the 0-100 weighted success ratio: full credit for
	// successes, partial credit for degraded results, none for failures
	// or skips. Zero for an empty sink.
	HealthScore int `json:"health_score" yaml:"health_score"`

	ConsolidatedAt time.Time `json:"consolidated_at" yaml:"consolidated_at"`
}

// degradedWeight is the health-score credit for a partially degraded result.
const degradedWeight = 0.75

// Consolidate re-reads the sink and computes the aggregate summary. It is
// idempotent and may run repeatedly against the same sink. A trailing
// partial record (interrupted run) is treated as absent; corruption
// anywhere else is an error.
func Consolidate(sinkPath string) (*Summary, error) {
	f, err := os.Open(sinkPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "opening result sink", err)
	}
	defer f.Close()

	s := &Summary{
		Targets:        make(map[string]TargetSummary),
		ConsolidatedAt: time.Now().UTC(),
	}

	var pendingErr error
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if pendingErr != nil {
			// A bad record followed by more records is real corruption,
			// not an interrupted final write.
			return nil, pendingErr
		}

		var res executor.TaskResult
		if err := json.Unmarshal(line, &res); err != nil {
			pendingErr = errors.Wrap(errors.ErrCodeInvalidInput, "decoding result record", err)
			continue
		}
		s.count(&res)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "reading result sink", err)
	}

	s.finish()
	return s, nil
}

func (s *Summary) count(res *executor.TaskResult) {
	s.Results++

	ts := s.Targets[res.TargetID]
	switch res.Status {
	case executor.StatusSuccess:
		s.Success++
		ts.Success++
	case executor.StatusPartiallyDegraded:
		s.PartiallyDegraded++
		ts.PartiallyDegraded++
	case executor.StatusSkipped:
		s.Skipped++
		ts.Skipped++
	default:
		s.Failed++
		ts.Failed++
		if s.CollectorFailures == nil {
			s.CollectorFailures = make(map[string]int)
		}
		s.CollectorFailures[res.Collector]++
	}
	s.Targets[res.TargetID] = ts
}

func (s *Summary) finish() {
	if s.Results > 0 {
		weighted := float64(s.Success) + degradedWeight*float64(s.PartiallyDegraded)
		s.HealthScore = int(math.Round(100 * weighted / float64(s.Results)))
	}

	for id, ts := range s.Targets {
		if ts.Failed > 0 {
			s.FailedTargets = append(s.FailedTargets, id)
		}
	}
	sort.Strings(s.FailedTargets)
}
