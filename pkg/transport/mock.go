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

package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fleetscout/fleetscout/pkg/target"
)

// Mock is a scripted Transport for tests. Per-host errors simulate failure
// stages; QueryFunc scripts query responses. All counters are safe for
// concurrent use.
type Mock struct {
	// ResolveErrs maps host ID to a resolution error.
	ResolveErrs map[string]error
	// ProbeErrs maps resolved address to a reachability error.
	ProbeErrs map[string]error
	// EndpointErrs maps host ID to an endpoint-availability error.
	EndpointErrs map[string]error
	// AuthErrs maps host ID to an authentication error.
	AuthErrs map[string]error

	// QueryFunc scripts query responses. When nil, queries succeed with an
	// empty result.
	QueryFunc func(tgt target.Target, q Query) (*Result, error)

	mu      sync.Mutex
	queries int64
}

// QueryCount returns how many queries have been executed.
func (m *Mock) QueryCount() int64 {
	return atomic.LoadInt64(&m.queries)
}

// Resolve returns the host as its own address unless scripted to fail.
func (m *Mock) Resolve(ctx context.Context, host string) (string, error) {
	if err := m.ResolveErrs[host]; err != nil {
		return "", err
	}
	return host, nil
}

// Probe succeeds unless scripted to fail.
func (m *Mock) Probe(ctx context.Context, addr string) error {
	return m.ProbeErrs[addr]
}

// CheckEndpoint succeeds unless scripted to fail.
func (m *Mock) CheckEndpoint(ctx context.Context, tgt target.Target) error {
	return m.EndpointErrs[tgt.ID]
}

// Authenticate succeeds unless scripted to fail.
func (m *Mock) Authenticate(ctx context.Context, tgt target.Target, auth target.AuthContext) error {
	return m.AuthErrs[tgt.ID]
}

// Query runs the scripted QueryFunc, counting invocations.
func (m *Mock) Query(ctx context.Context, tgt target.Target, auth target.AuthContext, q Query) (*Result, error) {
	atomic.AddInt64(&m.queries, 1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.QueryFunc == nil {
		return &Result{Fields: map[string]string{}}, nil
	}

	m.mu.Lock()
	fn := m.QueryFunc
	m.mu.Unlock()
	return fn(tgt, q)
}
