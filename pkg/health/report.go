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

package health

import (
	"time"

	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/target"
)

// TargetHealth is the outcome of the pre-flight checks for one target.
type TargetHealth struct {
	TargetID string `json:"target_id" yaml:"target_id"`

	// Address is the resolved address, set when resolution succeeded.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	Healthy bool `json:"healthy" yaml:"healthy"`

	// Score is the 0-100 composite derived from failed-check penalties.
	Score int `json:"score" yaml:"score"`

	// FailedStage names the first stage that failed, empty when healthy.
	FailedStage Stage `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`

	// Error is the failure description, empty when healthy.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Remediation is the actionable hint for the failed stage.
	Remediation string `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Report is the health gate's evaluation of the full target set.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	CheckedAt time.Time      `json:"checked_at" yaml:"checked_at"`
	Targets   []TargetHealth `json:"targets" yaml:"targets"`
}

// Healthy returns the targets that passed every stage, in report order.
func (r *Report) Healthy() []target.Target {
	var out []target.Target
	for _, th := range r.Targets {
		if th.Healthy {
			out = append(out, target.Target{ID: th.TargetID})
		}
	}
	return out
}

// UnhealthyCount returns how many targets failed at least one stage.
func (r *Report) UnhealthyCount() int {
	n := 0
	for _, th := range r.Targets {
		if !th.Healthy {
			n++
		}
	}
	return n
}

// AllHealthy reports whether every target passed.
func (r *Report) AllHealthy() bool {
	return r.UnhealthyCount() == 0
}
