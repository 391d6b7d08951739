package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

func TestValidateAllHealthy(t *testing.T) {
	g := NewGate(&transport.Mock{})
	targets := []target.Target{{ID: "host-1"}, {ID: "host-2"}}

	report := g.Validate(context.Background(), targets, target.AuthContext{})

	require.Len(t, report.Targets, 2)
	assert.True(t, report.AllHealthy())
	assert.Len(t, report.Healthy(), 2)
	for _, th := range report.Targets {
		assert.Equal(t, 100, th.Score)
		assert.Empty(t, th.FailedStage)
		assert.Empty(t, th.Remediation)
	}
}

func TestValidateStageFailures(t *testing.T) {
	m := &transport.Mock{
		ResolveErrs:  map[string]error{"bad-dns": errors.New("no such host")},
		ProbeErrs:    map[string]error{"unreachable": errors.New("no route")},
		EndpointErrs: map[string]error{"no-endpoint": errors.New("connection refused")},
		AuthErrs:     map[string]error{"bad-auth": errors.New("access denied")},
	}
	g := NewGate(m)
	targets := []target.Target{
		{ID: "bad-auth"},
		{ID: "bad-dns"},
		{ID: "healthy"},
		{ID: "no-endpoint"},
		{ID: "unreachable"},
	}

	report := g.Validate(context.Background(), targets, target.AuthContext{})
	require.Len(t, report.Targets, 5)

	byID := make(map[string]TargetHealth)
	for _, th := range report.Targets {
		byID[th.TargetID] = th
	}

	tests := []struct {
		id    string
		stage Stage
		score int
	}{
		{"bad-dns", StageResolve, 0},
		{"unreachable", StageReach, 40},
		{"no-endpoint", StageEndpoint, 60},
		{"bad-auth", StageAuth, 75},
	}

	for _, tt := range tests {
		th := byID[tt.id]
		assert.False(t, th.Healthy, tt.id)
		assert.Equal(t, tt.stage, th.FailedStage, tt.id)
		assert.Equal(t, tt.score, th.Score, tt.id)
		assert.NotEmpty(t, th.Remediation, tt.id)
		assert.NotEmpty(t, th.Error, tt.id)
	}

	assert.True(t, byID["healthy"].Healthy)
	assert.Equal(t, 4, report.UnhealthyCount())
	assert.Len(t, report.Healthy(), 1)
}

func TestValidateDistinctRemediationHints(t *testing.T) {
	m := &transport.Mock{
		ResolveErrs: map[string]error{"bad-dns": errors.New("no such host")},
		AuthErrs:    map[string]error{"bad-auth": errors.New("access denied")},
	}
	g := NewGate(m)

	report := g.Validate(context.Background(),
		[]target.Target{{ID: "bad-dns"}, {ID: "bad-auth"}},
		target.AuthContext{})

	byID := make(map[string]TargetHealth)
	for _, th := range report.Targets {
		byID[th.TargetID] = th
	}
	assert.NotEqual(t, byID["bad-dns"].Remediation, byID["bad-auth"].Remediation,
		"each failure type gets its own hint")
}

func TestValidateDeterministicOrder(t *testing.T) {
	g := NewGate(&transport.Mock{})
	targets := []target.Target{{ID: "zeta"}, {ID: "alpha"}, {ID: "mid"}}

	report := g.Validate(context.Background(), targets, target.AuthContext{})

	require.Len(t, report.Targets, 3)
	assert.Equal(t, "alpha", report.Targets[0].TargetID)
	assert.Equal(t, "mid", report.Targets[1].TargetID)
	assert.Equal(t, "zeta", report.Targets[2].TargetID)
}

func TestValidateIndependentTargets(t *testing.T) {
	// One doomed target must not block evaluation of the rest.
	m := &transport.Mock{
		ResolveErrs: map[string]error{"bad-dns": errors.New("no such host")},
	}
	g := NewGate(m)
	g.Throttle = 1

	targets := []target.Target{{ID: "bad-dns"}, {ID: "host-1"}, {ID: "host-2"}}
	report := g.Validate(context.Background(), targets, target.AuthContext{})

	assert.Len(t, report.Healthy(), 2)
	assert.Equal(t, 1, report.UnhealthyCount())
}
