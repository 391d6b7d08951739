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

package run

import (
	"time"

	"github.com/fleetscout/fleetscout/pkg/aggregate"
	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/health"
)

// Session is the aggregate of one audit invocation across all targets: the
// system's sole durable output contract. Created at invocation, finalized
// when the result sink closes.
type Session struct {
	header.Header `json:",inline" yaml:",inline"`

	// ID uniquely identifies the invocation.
	ID string `json:"id" yaml:"id"`

	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	EndedAt   time.Time `json:"ended_at" yaml:"ended_at"`

	// Targets is the size of the input target list.
	Targets int `json:"targets" yaml:"targets"`

	// Health is the pre-flight gate report for the full target set.
	Health *health.Report `json:"health,omitempty" yaml:"health,omitempty"`

	// Aborted is set when the strict health policy stopped the run before
	// any collector executed.
	Aborted bool `json:"aborted,omitempty" yaml:"aborted,omitempty"`

	// AbortReason explains an aborted run.
	AbortReason string `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`

	// SinkPath is where the raw result stream was written.
	SinkPath string `json:"sink_path,omitempty" yaml:"sink_path,omitempty"`

	// Summary is the consolidated sink view; nil only for aborted runs
	// that never opened the sink.
	Summary *aggregate.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Elapsed returns the wall-clock duration of the run.
func (s *Session) Elapsed() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}
