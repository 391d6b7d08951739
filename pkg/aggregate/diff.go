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
	"sort"
	"time"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/header"
)

// Drift captures how fleet health moved between two consolidated summaries,
// typically consecutive runs of the same audit.
type Drift struct {
	header.Header `json:",inline" yaml:",inline"`

	// ScoreDelta is the health-score change (current minus previous).
	ScoreDelta int `json:"score_delta" yaml:"score_delta"`

	// NewlyFailed lists targets failing now that had no failures before,
	// including targets absent from the previous run. Sorted.
	NewlyFailed []string `json:"newly_failed,omitempty" yaml:"newly_failed,omitempty"`

	// Recovered lists targets clean now that had failures before. Targets
	// that disappeared from the fleet do not count as recovered. Sorted.
	Recovered []string `json:"recovered,omitempty" yaml:"recovered,omitempty"`

	// CollectorDelta maps collector name to the change in its failure
	// count, only for collectors whose count moved.
	CollectorDelta map[string]int `json:"collector_delta,omitempty" yaml:"collector_delta,omitempty"`

	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`
}

// DiffSummaries compares two summaries and returns the drift from prev to
// cur. Both summaries must be non-nil.
func DiffSummaries(prev, cur *Summary) (*Drift, error) {
	if prev == nil || cur == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "both summaries are required")
	}

	d := &Drift{
		ScoreDelta: cur.HealthScore - prev.HealthScore,
		From:       prev.ConsolidatedAt,
		To:         cur.ConsolidatedAt,
	}

	prevFailed := make(map[string]bool, len(prev.Targets))
	for id, ts := range prev.Targets {
		prevFailed[id] = ts.Failed > 0
	}

	for id, ts := range cur.Targets {
		failedBefore, existed := prevFailed[id]
		switch {
		case ts.Failed > 0 && (!existed || !failedBefore):
			d.NewlyFailed = append(d.NewlyFailed, id)
		case ts.Failed == 0 && existed && failedBefore:
			d.Recovered = append(d.Recovered, id)
		}
	}
	sort.Strings(d.NewlyFailed)
	sort.Strings(d.Recovered)

	for name, count := range cur.CollectorFailures {
		if delta := count - prev.CollectorFailures[name]; delta != 0 {
			if d.CollectorDelta == nil {
				d.CollectorDelta = make(map[string]int)
			}
			d.CollectorDelta[name] = delta
		}
	}
	for name, count := range prev.CollectorFailures {
		if _, ok := cur.CollectorFailures[name]; !ok {
			if d.CollectorDelta == nil {
				d.CollectorDelta = make(map[string]int)
			}
			d.CollectorDelta[name] = -count
		}
	}

	return d, nil
}

// DiffSinks consolidates two sinks and returns the drift from the first to
// the second.
func DiffSinks(prevPath, curPath string) (*Drift, error) {
	prev, err := Consolidate(prevPath)
	if err != nil {
		return nil, err
	}
	cur, err := Consolidate(curPath)
	if err != nil {
		return nil, err
	}
	return DiffSummaries(prev, cur)
}
