package run

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/collector"
	"github.com/fleetscout/fleetscout/pkg/config"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/schedule"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// answering scripts a transport that satisfies every built-in collector's
// primary strategy. Profiler sub-probes get not-found answers, which the
// profiler treats as conservative constraints, never failures.
func answering() *transport.Mock {
	responses := map[string]*transport.Result{
		"os.info":         {Fields: map[string]string{"name": "Ubuntu", "version": "24.04"}},
		"system.uptime":   {Fields: map[string]string{"uptime_seconds": "7200", "boot_time": "2026-08-29T08:00:00Z"}},
		"storage.volumes": {Fields: map[string]string{"mount": "/", "total_kb": "1000000", "free_kb": "400000"}},
		"services.state":  {Fields: map[string]string{"sshd": "running"}},
		"net.interfaces":  {Fields: map[string]string{"eth0": "10.0.0.5"}},
	}
	return &transport.Mock{
		QueryFunc: func(_ target.Target, q transport.Query) (*transport.Result, error) {
			if res, ok := responses[q.Command]; ok {
				return res, nil
			}
			return nil, errors.New(errors.ErrCodeNotFound, "unsupported query: "+q.Command)
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func defaultOpts(t *testing.T, m *transport.Mock, targets ...target.Target) Options {
	t.Helper()
	return Options{
		Targets:   targets,
		Transport: m,
		Catalog:   collector.Catalog(collector.NewDefaultFactory(m)),
		SinkPath:  filepath.Join(t.TempDir(), "results.ndjson"),
	}
}

func TestRunEmptyTargetListIsFatal(t *testing.T) {
	r := NewRunner(testConfig(t))
	_, err := r.Run(context.Background(), Options{Transport: &transport.Mock{}})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestRunStrictAbortsBeforeCollectors(t *testing.T) {
	// Scenario: one healthy target, one DNS failure, one auth failure.
	m := answering()
	m.ResolveErrs = map[string]error{"bad-dns": stderrors.New("no such host")}
	m.AuthErrs = map[string]error{"bad-auth": stderrors.New("access denied")}

	opts := defaultOpts(t, m,
		target.Target{ID: "healthy"},
		target.Target{ID: "bad-dns"},
		target.Target{ID: "bad-auth"})
	opts.Strict = true

	r := NewRunner(testConfig(t))
	session, err := r.Run(context.Background(), opts)

	require.Error(t, err)
	require.NotNil(t, session)
	assert.True(t, session.Aborted)
	assert.NotEmpty(t, session.AbortReason)
	assert.Zero(t, m.QueryCount(), "no collector or probe query may run after a strict abort")

	require.NotNil(t, session.Health)
	assert.Len(t, session.Health.Healthy(), 1)
	assert.Equal(t, 2, session.Health.UnhealthyCount())

	hints := map[string]string{}
	for _, th := range session.Health.Targets {
		if !th.Healthy {
			hints[th.TargetID] = th.Remediation
		}
	}
	require.Len(t, hints, 2)
	assert.NotEqual(t, hints["bad-dns"], hints["bad-auth"], "failure types get distinct hints")
}

func TestRunLenientSkipsUnhealthyTargets(t *testing.T) {
	m := answering()
	m.ResolveErrs = map[string]error{"bad-dns": stderrors.New("no such host")}

	opts := defaultOpts(t, m,
		target.Target{ID: "healthy"},
		target.Target{ID: "bad-dns"})

	r := NewRunner(testConfig(t))
	session, err := r.Run(context.Background(), opts)

	require.NoError(t, err)
	assert.False(t, session.Aborted)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 5, session.Summary.Results, "only the healthy target is audited")
	assert.Equal(t, 5, session.Summary.Success)
	assert.Equal(t, 100, session.Summary.HealthScore)
}

func TestRunConsolidatesAllResults(t *testing.T) {
	// One target, the full five-collector catalog.
	m := answering()
	opts := defaultOpts(t, m, target.Target{ID: "host-1"})

	r := NewRunner(testConfig(t))
	session, err := r.Run(context.Background(), opts)

	require.NoError(t, err)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 5, session.Summary.Results)
	assert.Equal(t, 5, session.Summary.Success)
	assert.NotEmpty(t, session.ID)
	assert.False(t, session.EndedAt.IsZero())
}

func TestRunEmitsSummaryWhenEverythingFails(t *testing.T) {
	m := &transport.Mock{
		QueryFunc: func(_ target.Target, _ transport.Query) (*transport.Result, error) {
			return nil, errors.New(errors.ErrCodeUnauthorized, "access denied")
		},
	}
	opts := defaultOpts(t, m, target.Target{ID: "host-1"})
	opts.SkipProfiling = true

	r := NewRunner(testConfig(t))
	session, err := r.Run(context.Background(), opts)

	require.NoError(t, err, "per-task failures never abort the run")
	require.NotNil(t, session.Summary)
	assert.Equal(t, 5, session.Summary.Results)
	assert.Equal(t, 5, session.Summary.Failed)
	assert.Equal(t, 0, session.Summary.HealthScore)
	assert.Contains(t, session.Summary.FailedTargets, "host-1")
}

func TestRunSkipProfilingAvoidsProbes(t *testing.T) {
	seen := make(chan string, 64)
	m := answering()
	base := m.QueryFunc
	m.QueryFunc = func(tgt target.Target, q transport.Query) (*transport.Result, error) {
		select {
		case seen <- q.Command:
		default:
		}
		return base(tgt, q)
	}

	opts := defaultOpts(t, m, target.Target{ID: "host-1"})
	opts.SkipProfiling = true

	r := NewRunner(testConfig(t))
	_, err := r.Run(context.Background(), opts)
	require.NoError(t, err)

	close(seen)
	for cmd := range seen {
		assert.NotContains(t, []string{"cpu.count", "mem.info", "load.avg", "net.rtt"}, cmd,
			"skip-profiling must not touch the probe surface")
	}
}

func TestRunCompletesUnderSimulatedPressure(t *testing.T) {
	m := answering()
	opts := defaultOpts(t, m, target.Target{ID: "a"}, target.Target{ID: "b"})
	opts.SkipProfiling = true
	opts.PressureSampler = schedule.SamplerFunc(func() (float64, float64, error) {
		return 0.99, 0.99, nil
	})

	cfg := testConfig(t)
	cfg.Scheduler.FleetCeiling = 4
	cfg.Scheduler.SampleInterval = time.Millisecond

	r := NewRunner(cfg)
	session, err := r.Run(context.Background(), opts)

	require.NoError(t, err)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 10, session.Summary.Results, "throttling slows the run but loses nothing")
}
