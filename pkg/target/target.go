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

package target

import (
	"fmt"
	"strings"

	"github.com/fleetscout/fleetscout/pkg/procfile"
)

// Target is an addressable host under audit. Targets are created from the
// input list at run start and are immutable for the duration of the run.
type Target struct {
	// ID is the host name or address used to reach the target. It is also
	// the key for profile caching and result attribution.
	ID string `json:"id" yaml:"id"`

	// Labels carries optional caller-supplied metadata (site, role). Not
	// interpreted by the core.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// String returns the target identifier.
func (t Target) String() string {
	return t.ID
}

// AuthContext is an opaque credential handle passed through to the transport.
// The secret itself is never logged or serialized.
type AuthContext struct {
	// User is the account used for the authenticated channel.
	User string

	secret string
}

// NewAuthContext creates an AuthContext holding the given user and secret.
func NewAuthContext(user, secret string) AuthContext {
	return AuthContext{User: user, secret: secret}
}

// Secret returns the credential secret for transport bindings.
func (a AuthContext) Secret() string {
	return a.secret
}

// String implements fmt.Stringer with the secret redacted.
func (a AuthContext) String() string {
	return fmt.Sprintf("AuthContext{User:%s, Secret:***}", a.User)
}

// ParseList parses a comma-separated list of target identifiers into Targets.
// Whitespace around entries is trimmed; empty entries are skipped.
// Returns an error if no valid targets remain.
func ParseList(s string) ([]Target, error) {
	var targets []Target
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, Target{ID: id})
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("target list is empty")
	}
	return targets, nil
}

// LoadList reads target identifiers from a file, one per line. Comment lines
// ("#" prefix) and blanks are skipped. Returns an error if the file cannot be
// read or contains no targets.
func LoadList(path string) ([]Target, error) {
	lines, err := procfile.NewParser().GetLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load target list: %w", err)
	}

	var targets []Target
	seen := make(map[string]bool)
	for _, line := range lines {
		id := strings.Fields(line)[0]
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, Target{ID: id})
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("target list %q contains no targets", path)
	}
	return targets, nil
}
