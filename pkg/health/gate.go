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
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// Stage identifies one pre-flight check, in fail-fast priority order.
type Stage string

const (
	StageResolve  Stage = "resolve"
	StageReach    Stage = "reach"
	StageEndpoint Stage = "endpoint"
	StageAuth     Stage = "auth"
)

// stagePenalties maps the first failed stage to the score subtracted from
// 100. Later stages are skipped once one fails (they would fail anyway) and
// are not penalized again.
var stagePenalties = map[Stage]int{
	StageResolve:  100,
	StageReach:    60,
	StageEndpoint: 40,
	StageAuth:     25,
}

// stageHints maps each stage to its remediation text.
var stageHints = map[Stage]string{
	StageResolve:  "verify DNS/hostname resolution for the target",
	StageReach:    "verify the target is powered on and the network path is open",
	StageEndpoint: "verify the remote-management service is enabled and the firewall allows the port",
	StageAuth:     "verify credentials and remote admin group membership",
}

// Gate runs cheap pre-flight checks per target, short-circuiting doomed
// targets before expensive collection starts.
type Gate struct {
	Transport transport.Transport

	// Throttle caps how many targets are checked concurrently.
	Throttle int

	// StageTimeout bounds each individual check stage.
	StageTimeout time.Duration
}

// NewGate creates a Gate with default throttle and timeouts.
func NewGate(tr transport.Transport) *Gate {
	return &Gate{
		Transport:    tr,
		Throttle:     defaults.HealthCheckThrottle,
		StageTimeout: defaults.HealthCheckTimeout,
	}
}

// Validate checks all targets independently and concurrently, bounded by the
// gate throttle. It always returns a report covering every target; whether
// an unhealthy target aborts the run (strict) or is skipped (lenient) is the
// caller's policy, not the gate's.
func (g *Gate) Validate(ctx context.Context, targets []target.Target, auth target.AuthContext) *Report {
	report := &Report{
		CheckedAt: time.Now(),
		Targets:   make([]TargetHealth, len(targets)),
	}

	eg, egctx := errgroup.WithContext(ctx)
	throttle := g.Throttle
	if throttle < 1 {
		throttle = 1
	}
	eg.SetLimit(throttle)

	for i, tgt := range targets {
		eg.Go(func() error {
			report.Targets[i] = g.check(egctx, tgt, auth)
			return nil
		})
	}
	// Check goroutines never return errors.
	_ = eg.Wait()

	// Deterministic report order regardless of completion order.
	sort.Slice(report.Targets, func(a, b int) bool {
		return report.Targets[a].TargetID < report.Targets[b].TargetID
	})

	slog.Info("health gate complete",
		"targets", len(targets),
		"healthy", len(report.Healthy()),
		"unhealthy", report.UnhealthyCount())

	return report
}

// check runs the stages for one target in fail-fast order.
func (g *Gate) check(ctx context.Context, tgt target.Target, auth target.AuthContext) TargetHealth {
	th := TargetHealth{
		TargetID: tgt.ID,
		Score:    100,
	}

	stageCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, g.StageTimeout)
	}

	fail := func(stage Stage, err error) TargetHealth {
		th.Healthy = false
		th.FailedStage = stage
		th.Error = err.Error()
		th.Remediation = stageHints[stage]
		th.Score -= stagePenalties[stage]
		if th.Score < 0 {
			th.Score = 0
		}
		slog.Debug("health check failed",
			"target", tgt.ID,
			"stage", string(stage),
			"error", err)
		return th
	}

	rctx, cancel := stageCtx()
	addr, err := g.Transport.Resolve(rctx, tgt.ID)
	cancel()
	if err != nil {
		return fail(StageResolve, err)
	}
	th.Address = addr

	pctx, cancel := stageCtx()
	err = g.Transport.Probe(pctx, addr)
	cancel()
	if err != nil {
		return fail(StageReach, err)
	}

	ectx, cancel := stageCtx()
	err = g.Transport.CheckEndpoint(ectx, tgt)
	cancel()
	if err != nil {
		return fail(StageEndpoint, err)
	}

	actx, cancel := stageCtx()
	err = g.Transport.Authenticate(actx, tgt, auth)
	cancel()
	if err != nil {
		return fail(StageAuth, err)
	}

	th.Healthy = true
	return th
}
