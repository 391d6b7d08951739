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

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// Profiler measures a target's resource headroom and derives its safety
// budget. Results are cached with a TTL in the explicitly supplied Cache.
type Profiler struct {
	Transport transport.Transport
	Cache     Cache
	Policy    Policy

	// Auth is the credential context used for sub-probe queries.
	Auth target.AuthContext
}

// NewProfiler creates a Profiler with the default policy.
func NewProfiler(tr transport.Transport, cache Cache, auth target.AuthContext) *Profiler {
	return &Profiler{
		Transport: tr,
		Cache:     cache,
		Policy:    DefaultPolicy(),
		Auth:      auth,
	}
}

// Profile returns the capability profile for the target. A cached profile
// younger than the TTL is returned unchanged with CachedResult set, without
// re-querying the target. Profiling failure never blocks the audit: when
// every sub-probe fails a conservative default profile is returned instead
// of an error.
func (p *Profiler) Profile(ctx context.Context, tgt target.Target, useCache bool) (*CapabilityProfile, error) {
	if useCache && p.Cache != nil {
		if cached, ok := p.Cache.Get(tgt.ID); ok {
			if cached.Age() < p.Policy.TTL {
				cached.CachedResult = true
				slog.Debug("profile cache hit",
					"target", tgt.ID,
					"age", cached.Age().Round(time.Second))
				return cached, nil
			}
			slog.Debug("profile cache entry stale, recomputing", "target", tgt.ID)
		}
	}

	prof := p.measure(ctx, tgt)
	p.derive(prof)

	if p.Cache != nil {
		if err := p.Cache.Put(prof); err != nil {
			// Cache write failure degrades to uncached operation.
			slog.Warn("failed to cache profile", "target", tgt.ID, "error", err)
		}
	}

	slog.Debug("profile captured",
		"target", tgt.ID,
		"tier", prof.Tier.String(),
		"concurrency", prof.SafeConcurrency,
		"timeout", prof.TaskTimeout,
		"constraints", len(prof.Constraints))

	return prof, nil
}

// Conservative returns the default profile used when probing is skipped or
// impossible: tier Low, concurrency 1, the longest tier timeout.
func (p *Profiler) Conservative(tgt target.Target) *CapabilityProfile {
	prof := &CapabilityProfile{
		TargetID:    tgt.ID,
		Processors:  1,
		Tier:        TierLow,
		Constraints: []string{"profiling unavailable, conservative defaults assumed"},
		CapturedAt:  time.Now(),
	}
	prof.SafeConcurrency = 1
	prof.TaskTimeout = p.timeoutForTier(TierLow)
	return prof
}

// measure runs the sub-probes concurrently, each under its own timeout.
// Partial failure does not fail the profile; missing metrics default to
// worst-case assumptions recorded as constraints.
func (p *Profiler) measure(ctx context.Context, tgt target.Target) *CapabilityProfile {
	prof := &CapabilityProfile{
		TargetID:   tgt.ID,
		CapturedAt: time.Now(),
	}

	var mu sync.Mutex
	addConstraint := func(c string) {
		mu.Lock()
		prof.Constraints = append(prof.Constraints, c)
		mu.Unlock()
	}

	probe := func(command string) (*transport.Result, error) {
		pctx, cancel := context.WithTimeout(ctx, p.Policy.SubProbeTimeout)
		defer cancel()
		return p.Transport.Query(pctx, tgt, p.Auth, transport.Query{Command: command})
	}

	var failures int64
	countFailure := func(name string, err error) {
		mu.Lock()
		failures++
		mu.Unlock()
		slog.Debug("sub-probe failed", "target", tgt.ID, "probe", name, "error", err)
	}

	// Sub-probes are independent; run them in parallel like any other
	// collector fan-out. Errors are absorbed here, not propagated.
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := probe("cpu.count")
		if err != nil {
			countFailure("cpu.count", err)
			addConstraint("processor count unknown, assuming 1")
			return nil
		}
		n, convErr := strconv.Atoi(res.Fields["count"])
		if convErr != nil || n < 1 {
			addConstraint("processor count unparseable, assuming 1")
			return nil
		}
		mu.Lock()
		prof.Processors = n
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := probe("mem.info")
		if err != nil {
			countFailure("mem.info", err)
			addConstraint("memory unknown, assuming low memory")
			return nil
		}
		total, _ := strconv.ParseUint(res.Fields["total_kb"], 10, 64)
		avail, _ := strconv.ParseUint(res.Fields["available_kb"], 10, 64)
		mu.Lock()
		prof.MemoryTotalKB = total
		prof.MemoryAvailableKB = avail
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := probe("storage.stats")
		if err != nil {
			countFailure("storage.stats", err)
			addConstraint("storage metrics unknown, assuming slow storage")
			mu.Lock()
			prof.StorageLatencyMS = p.Policy.HighStorageLatencyMS
			mu.Unlock()
			return nil
		}
		free, _ := strconv.ParseFloat(res.Fields["free_pct"], 64)
		lat, _ := strconv.ParseInt(res.Fields["latency_ms"], 10, 64)
		mu.Lock()
		prof.StorageFreePct = free
		prof.StorageLatencyMS = lat
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := probe("net.rtt")
		if err != nil {
			countFailure("net.rtt", err)
			addConstraint("network latency unknown, assuming remote")
			mu.Lock()
			prof.NetworkRTTMS = p.Policy.HighNetworkRTTMS
			mu.Unlock()
			return nil
		}
		rtt, _ := strconv.ParseInt(res.Fields["rtt_ms"], 10, 64)
		mu.Lock()
		prof.NetworkRTTMS = rtt
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := probe("load.avg")
		if err != nil {
			countFailure("load.avg", err)
			addConstraint("load unknown")
			return nil
		}
		load, _ := strconv.ParseFloat(res.Fields["load_per_core"], 64)
		mu.Lock()
		prof.LoadPerCore = load
		mu.Unlock()
		return nil
	})

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	if failures >= 5 {
		slog.Warn("all sub-probes failed, using conservative defaults", "target", tgt.ID)
		c := p.Conservative(tgt)
		c.CapturedAt = prof.CapturedAt
		return c
	}

	if prof.Processors < 1 {
		prof.Processors = 1
	}
	return prof
}

// derive computes the safety budget from raw readings: a monotonic step
// function over processor count, then downward-only adjustments for each
// detected constraint, floored at 1.
func (p *Profiler) derive(prof *CapabilityProfile) {
	if prof.SafeConcurrency > 0 && prof.TaskTimeout > 0 {
		// Already derived (conservative default path).
		return
	}

	conc := stepConcurrency(prof.Processors, p.Policy.MaxConcurrency)

	halve := func(reason string) {
		if conc > 1 {
			conc /= 2
		}
		prof.Constraints = append(prof.Constraints, reason)
	}

	if prof.MemoryTotalKB > 0 && prof.MemoryAvailableKB < p.Policy.LowMemoryKB {
		halve(fmt.Sprintf("low available memory (%d KB)", prof.MemoryAvailableKB))
	}
	if prof.MemoryTotalKB > 0 {
		util := 1 - float64(prof.MemoryAvailableKB)/float64(prof.MemoryTotalKB)
		if util > p.Policy.HighMemoryUtilization {
			halve(fmt.Sprintf("high memory utilization (%.0f%%)", util*100))
		}
	}
	if prof.StorageFreePct > 0 && prof.StorageFreePct < p.Policy.LowStorageFreePct {
		halve(fmt.Sprintf("low storage free space (%.1f%%)", prof.StorageFreePct))
	}
	if prof.StorageLatencyMS > p.Policy.HighStorageLatencyMS {
		halve(fmt.Sprintf("high storage latency (%d ms)", prof.StorageLatencyMS))
	}
	if prof.LoadPerCore > p.Policy.HighLoadPerCore {
		halve(fmt.Sprintf("high load (%.2f per core)", prof.LoadPerCore))
	}
	if prof.NetworkRTTMS >= p.Policy.HighNetworkRTTMS {
		// Distant targets get serialized outright.
		conc = 1
		prof.Constraints = append(prof.Constraints,
			fmt.Sprintf("high network latency (%d ms), forcing serial execution", prof.NetworkRTTMS))
	}

	if conc < 1 {
		conc = 1
	}
	prof.SafeConcurrency = conc
	prof.Tier = tierFor(conc, len(prof.Constraints))
	prof.TaskTimeout = p.timeoutForTier(prof.Tier)
}

// stepConcurrency maps processor count to base concurrency:
// 1-2 cores -> 1, 3-4 -> 2, 5-8 -> 4, 9+ -> cores/2 capped.
func stepConcurrency(cores, limit int) int {
	var c int
	switch {
	case cores <= 2:
		c = 1
	case cores <= 4:
		c = 2
	case cores <= 8:
		c = 4
	default:
		c = cores / 2
	}
	if limit > 0 && c > limit {
		c = limit
	}
	if c < 1 {
		c = 1
	}
	return c
}

// tierFor classifies a target from its final concurrency and the number of
// constraints detected.
func tierFor(conc, constraints int) Tier {
	switch {
	case conc >= 8 && constraints == 0:
		return TierVeryHigh
	case conc >= 4:
		return TierHigh
	case conc >= 2:
		return TierMedium
	default:
		return TierLow
	}
}

// timeoutForTier looks up the per-task timeout for a tier, clamped to the
// configured floor.
func (p *Profiler) timeoutForTier(t Tier) time.Duration {
	d, ok := p.Policy.TierTimeouts[t]
	if !ok {
		d = p.Policy.TierTimeouts[TierLow]
	}
	if d < p.Policy.TimeoutFloor {
		d = p.Policy.TimeoutFloor
	}
	return d
}
