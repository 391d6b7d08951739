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
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
)

// ReliabilityOptions tunes the per-target circuit breaker and the shared
// query rate limiter.
type ReliabilityOptions struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period to clear failure counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker when exceeded.
	ConsecutiveFailures uint32

	// QueriesPerSecond caps outbound query rate across all targets.
	QueriesPerSecond float64

	// Burst is the limiter burst size.
	Burst int

	// ResolveTimeout, ProbeTimeout, and QueryTimeout bound each transport
	// operation when the caller's context carries no deadline of its own.
	// Zero disables the bound.
	ResolveTimeout time.Duration
	ProbeTimeout   time.Duration
	QueryTimeout   time.Duration
}

// DefaultReliabilityOptions returns conservative breaker and limiter settings.
func DefaultReliabilityOptions() ReliabilityOptions {
	return ReliabilityOptions{
		MaxRequests:         3,
		Interval:            5 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		QueriesPerSecond:    50,
		Burst:               10,
		ResolveTimeout:      defaults.ResolveTimeout,
		ProbeTimeout:        defaults.ProbeTimeout,
		QueryTimeout:        defaults.QueryTimeout,
	}
}

// ReliabilityWrapper decorates a Transport with a per-target circuit breaker
// and a fleet-wide outbound rate limiter. A target whose breaker is open
// fails fast with a transient-endpoint error instead of consuming retries
// against a dead host.
type ReliabilityWrapper struct {
	next    Transport
	opts    ReliabilityOptions
	limiter *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewReliabilityWrapper wraps the given transport.
func NewReliabilityWrapper(next Transport, opts ReliabilityOptions) *ReliabilityWrapper {
	return &ReliabilityWrapper{
		next:     next,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.QueriesPerSecond), opts.Burst),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (w *ReliabilityWrapper) breakerFor(id string) *gobreaker.CircuitBreaker {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cb, ok := w.breakers[id]; ok {
		return cb
	}

	threshold := w.opts.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        id,
		MaxRequests: w.opts.MaxRequests,
		Interval:    w.opts.Interval,
		Timeout:     w.opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > threshold
		},
	})
	w.breakers[id] = cb
	return cb
}

// boundCtx applies the operation timeout unless the caller already set a
// deadline.
func boundCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Query rate-limits and circuit-breaks the underlying query channel.
func (w *ReliabilityWrapper) Query(ctx context.Context, tgt target.Target, auth target.AuthContext, q Query) (*Result, error) {
	ctx, cancel := boundCtx(ctx, w.opts.QueryTimeout)
	defer cancel()

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("query rate limit wait: %w", err)
	}

	cb := w.breakerFor(tgt.ID)
	res, err := cb.Execute(func() (any, error) {
		return w.next.Query(ctx, tgt, auth, q)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint,
				fmt.Sprintf("circuit open for target %s", tgt.ID), err)
		}
		return nil, err
	}

	return res.(*Result), nil
}

// Resolve delegates to the underlying transport under the resolve timeout.
func (w *ReliabilityWrapper) Resolve(ctx context.Context, host string) (string, error) {
	ctx, cancel := boundCtx(ctx, w.opts.ResolveTimeout)
	defer cancel()
	return w.next.Resolve(ctx, host)
}

// Probe delegates to the underlying transport under the probe timeout.
func (w *ReliabilityWrapper) Probe(ctx context.Context, addr string) error {
	ctx, cancel := boundCtx(ctx, w.opts.ProbeTimeout)
	defer cancel()
	return w.next.Probe(ctx, addr)
}

// CheckEndpoint delegates to the underlying transport.
func (w *ReliabilityWrapper) CheckEndpoint(ctx context.Context, tgt target.Target) error {
	return w.next.CheckEndpoint(ctx, tgt)
}

// Authenticate delegates to the underlying transport.
func (w *ReliabilityWrapper) Authenticate(ctx context.Context, tgt target.Target, auth target.AuthContext) error {
	return w.next.Authenticate(ctx, tgt, auth)
}
