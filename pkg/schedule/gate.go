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

package schedule

import (
	"context"
	"sync/atomic"
	"time"
)

// gatePollInterval bounds how long a dispatcher waits before re-checking a
// full gate. The ceiling is published atomically, so waiters poll rather
// than block on a lock.
const gatePollInterval = 10 * time.Millisecond

// FleetGate is the fleet-wide admission limit. The ceiling starts at the
// configured maximum and is adjusted only by the pressure monitor: halved
// under sustained local pressure, recovered one slot at a time once pressure
// clears. It never exceeds the original maximum and never drops below 1.
type FleetGate struct {
	max      int64
	ceiling  atomic.Int64
	inflight atomic.Int64
}

// NewFleetGate creates a gate with the given maximum ceiling (floored at 1).
func NewFleetGate(max int) *FleetGate {
	if max < 1 {
		max = 1
	}
	g := &FleetGate{max: int64(max)}
	g.ceiling.Store(int64(max))
	fleetCeiling.Set(float64(max))
	return g
}

// Ceiling returns the current fleet-wide concurrency ceiling.
func (g *FleetGate) Ceiling() int {
	return int(g.ceiling.Load())
}

// Max returns the configured maximum ceiling.
func (g *FleetGate) Max() int {
	return int(g.max)
}

// InFlight returns the number of currently admitted tasks.
func (g *FleetGate) InFlight() int {
	return int(g.inflight.Load())
}

// Acquire blocks until a fleet-wide slot is available or the context is
// cancelled. Slots already admitted are unaffected by later ceiling drops;
// the reduced ceiling applies to subsequent admissions.
func (g *FleetGate) Acquire(ctx context.Context) error {
	for {
		cur := g.inflight.Load()
		if cur < g.ceiling.Load() && g.inflight.CompareAndSwap(cur, cur+1) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(gatePollInterval):
		}
	}
}

// Release returns a slot to the gate.
func (g *FleetGate) Release() {
	g.inflight.Add(-1)
}

// throttle halves the ceiling, floored at 1. Returns the new value.
func (g *FleetGate) throttle() int {
	for {
		cur := g.ceiling.Load()
		next := cur / 2
		if next < 1 {
			next = 1
		}
		if g.ceiling.CompareAndSwap(cur, next) {
			fleetCeiling.Set(float64(next))
			return int(next)
		}
	}
}

// recover raises the ceiling by one slot toward the configured maximum.
// Recovery is deliberately slower than throttling to avoid oscillation.
func (g *FleetGate) recover() int {
	for {
		cur := g.ceiling.Load()
		next := cur + 1
		if next > g.max {
			next = g.max
		}
		if g.ceiling.CompareAndSwap(cur, next) {
			fleetCeiling.Set(float64(next))
			return int(next)
		}
	}
}
