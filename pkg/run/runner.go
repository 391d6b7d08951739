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
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fleetscout/fleetscout/pkg/aggregate"
	"github.com/fleetscout/fleetscout/pkg/config"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/health"
	"github.com/fleetscout/fleetscout/pkg/procfile"
	"github.com/fleetscout/fleetscout/pkg/profile"
	"github.com/fleetscout/fleetscout/pkg/schedule"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// profileThrottle bounds concurrent target profiling at run start.
const profileThrottle = 8

// Options describes one audit invocation.
type Options struct {
	// Targets is the host set to audit. Must be non-empty.
	Targets []target.Target

	// Auth is the credential context for all remote operations.
	Auth target.AuthContext

	// Transport is the remote-access binding.
	Transport transport.Transport

	// Catalog is the collectors to run against each target.
	Catalog []executor.Collector

	// Cache stores capability profiles across runs. Nil disables reuse.
	Cache profile.Cache

	// SinkPath is the result stream destination.
	SinkPath string

	// Strict aborts the whole run when any target fails the health gate;
	// otherwise unhealthy targets are skipped.
	Strict bool

	// SkipProfiling forces conservative defaults instead of probing.
	SkipProfiling bool

	// ConcurrencyOverride, when positive, replaces profile-derived
	// per-target concurrency.
	ConcurrencyOverride int

	// PressureSampler overrides the local pressure source for throttling;
	// nil selects procfs.
	PressureSampler schedule.Sampler

	// Config carries the tunables; nil selects all defaults.
	Config *config.Config
}

// Runner orchestrates one audit: health gate, profiling, admission,
// execution, and consolidation.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a Runner. A nil config selects defaults.
func NewRunner(cfg *config.Config) *Runner {
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			loaded = &config.Config{}
		}
		cfg = loaded
	}
	return &Runner{cfg: cfg}
}

// Run executes the audit to completion. It returns an error only for fatal
// misconfiguration (empty target list), a strict-policy health failure, or
// run cancellation; per-task failures are reported in the session summary,
// never as errors.
func (r *Runner) Run(ctx context.Context, opts Options) (*Session, error) {
	if len(opts.Targets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target list is empty")
	}
	if opts.Transport == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no transport configured")
	}

	session := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Targets:   len(opts.Targets),
		SinkPath:  opts.SinkPath,
	}
	session.Header.Init(header.KindSession, "")
	slog.Info("audit session starting",
		"session", session.ID,
		"targets", len(opts.Targets),
		"collectors", len(opts.Catalog))

	// Pre-flight gate. In strict mode any unhealthy target stops the run
	// before a single collector executes.
	gate := health.NewGate(opts.Transport)
	if r.cfg.Health.Throttle > 0 {
		gate.Throttle = r.cfg.Health.Throttle
	}
	if r.cfg.Health.StageTimeout > 0 {
		gate.StageTimeout = r.cfg.Health.StageTimeout
	}
	report := gate.Validate(ctx, opts.Targets, opts.Auth)
	session.Health = report

	healthy := report.Healthy()
	if report.UnhealthyCount() > 0 && opts.Strict {
		session.Aborted = true
		session.AbortReason = "strict health policy: one or more targets failed pre-flight checks"
		session.EndedAt = time.Now().UTC()
		slog.Warn("aborting run under strict health policy",
			"session", session.ID,
			"unhealthy", report.UnhealthyCount())
		return session, errors.New(errors.ErrCodeInvalidInput, session.AbortReason)
	}

	profiles := r.profileTargets(ctx, opts, healthy)

	plan := schedule.Plan(healthy, opts.Auth, opts.Catalog, profiles, schedule.PlanOptions{
		ConcurrencyOverride: opts.ConcurrencyOverride,
		FleetCeiling:        r.cfg.Scheduler.FleetCeiling,
		Retry:               r.retryPolicy(),
	})

	writer, err := aggregate.Open(opts.SinkPath, r.cfg.Sink.BufferSize, r.cfg.Sink.FlushInterval,
		aggregate.WithMemorySampler(localMemorySampler))
	if err != nil {
		session.EndedAt = time.Now().UTC()
		return session, err
	}

	fleetGate := schedule.NewFleetGate(plan.FleetCeiling)
	monitor := schedule.NewPressureMonitor(fleetGate)
	if opts.PressureSampler != nil {
		monitor.Sampler = opts.PressureSampler
	}
	if r.cfg.Scheduler.SampleInterval > 0 {
		monitor.Interval = r.cfg.Scheduler.SampleInterval
	}
	if r.cfg.Scheduler.CPUHighWaterMark > 0 {
		monitor.CPUHighWaterMark = r.cfg.Scheduler.CPUHighWaterMark
	}
	if r.cfg.Scheduler.MemoryHighWaterMark > 0 {
		monitor.MemoryHighWaterMark = r.cfg.Scheduler.MemoryHighWaterMark
	}

	mctx, stopMonitor := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(mctx)
	}()

	runErr := schedule.NewScheduler(fleetGate).Run(ctx, plan, writer)

	stopMonitor()
	wg.Wait()

	if err := writer.Finalize(); err != nil && runErr == nil {
		runErr = err
	}

	// The run always emits a summary, even when cancelled or when every
	// target failed.
	summary, cerr := aggregate.Consolidate(opts.SinkPath)
	if cerr == nil {
		session.Summary = summary
	} else if runErr == nil {
		runErr = cerr
	}

	session.EndedAt = time.Now().UTC()
	slog.Info("audit session finished",
		"session", session.ID,
		"elapsed", session.Elapsed(),
		"results", resultCount(summary),
		"error", runErr)
	return session, runErr
}

// profileTargets profiles every healthy target under a small throttle.
// With SkipProfiling set, every target gets the conservative default
// (serial, tier Low) without touching the network.
func (r *Runner) profileTargets(ctx context.Context, opts Options, healthy []target.Target) map[string]*profile.CapabilityProfile {
	profiles := make(map[string]*profile.CapabilityProfile, len(healthy))
	var mu sync.Mutex

	profiler := profile.NewProfiler(opts.Transport, opts.Cache, opts.Auth)
	profiler.Policy = r.profilePolicy()

	if opts.SkipProfiling {
		for _, tgt := range healthy {
			profiles[tgt.ID] = profiler.Conservative(tgt)
		}
		return profiles
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileThrottle)
	for _, tgt := range healthy {
		g.Go(func() error {
			prof, err := profiler.Profile(gctx, tgt, true)
			if err != nil {
				// Profiling failure never blocks the audit.
				slog.Warn("profiling failed, using conservative defaults",
					"target", tgt.ID, "error", err)
				prof = profiler.Conservative(tgt)
			}
			mu.Lock()
			profiles[tgt.ID] = prof
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return profiles
}

func (r *Runner) profilePolicy() profile.Policy {
	if r.cfg == nil {
		return profile.DefaultPolicy()
	}
	return r.cfg.ProfilePolicy()
}

func (r *Runner) retryPolicy() executor.RetryPolicy {
	if r.cfg == nil {
		return executor.DefaultRetryPolicy()
	}
	return r.cfg.RetryPolicy()
}

// localMemorySampler feeds the sink's pressure-driven buffer shrinking.
func localMemorySampler() (float64, error) {
	m, err := procfile.ReadMemStats(procfile.MemInfoPath)
	if err != nil {
		return 0, err
	}
	return m.Utilization(), nil
}

func resultCount(s *aggregate.Summary) int {
	if s == nil {
		return 0
	}
	return s.Results
}
