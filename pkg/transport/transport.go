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

	"github.com/fleetscout/fleetscout/pkg/target"
)

// Query describes one remote query issued over the authenticated channel.
type Query struct {
	// Command identifies the remote operation (e.g. "os.release",
	// "services.state"). Bindings map it to their protocol.
	Command string

	// Args carries optional command arguments.
	Args []string
}

// Result is the raw outcome of a remote query before collector normalization.
type Result struct {
	// Fields holds structured key-value output when the binding provides it.
	Fields map[string]string

	// Raw holds unstructured output for legacy/minimal strategies.
	Raw string
}

// Resolver resolves a target identifier to a reachable address.
type Resolver interface {
	Resolve(ctx context.Context, host string) (string, error)
}

// Prober performs a lightweight reachability check against an address.
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// QueryChannel executes authenticated queries against a target.
type QueryChannel interface {
	Query(ctx context.Context, tgt target.Target, auth target.AuthContext, q Query) (*Result, error)
}

// Transport is the full remote-access capability consumed by the core:
// name resolution, reachability probing, endpoint validation, authentication,
// and the authenticated query channel. Concrete bindings (SSH, HTTP agent,
// local loopback) live behind this interface.
type Transport interface {
	Resolver
	Prober
	QueryChannel

	// CheckEndpoint verifies the remote management endpoint is available
	// without authenticating.
	CheckEndpoint(ctx context.Context, tgt target.Target) error

	// Authenticate verifies the credentials against the target.
	Authenticate(ctx context.Context, tgt target.Target, auth target.AuthContext) error
}
