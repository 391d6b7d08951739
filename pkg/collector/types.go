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

package collector

// Record is a single normalized audit measurement produced by a collector.
type Record struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data" yaml:"data"`

	// Source names the data-source strategy that produced the record
	// (e.g. "structured", "legacy", "minimal").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Strategy source names shared by the built-in collectors.
const (
	SourceStructured = "structured"
	SourceLegacy     = "legacy"
	SourceMinimal    = "minimal"
)
