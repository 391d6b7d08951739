package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
)

func TestLoopbackResolve(t *testing.T) {
	l := NewLoopback()

	addr, err := l.Resolve(context.Background(), "localhost")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", addr)
}

func TestLoopbackQueryCPUCount(t *testing.T) {
	l := NewLoopback()

	res, err := l.Query(context.Background(), target.Target{ID: "localhost"}, target.AuthContext{}, Query{Command: "cpu.count"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Fields["count"])
}

func TestLoopbackQueryUnsupported(t *testing.T) {
	l := NewLoopback()

	_, err := l.Query(context.Background(), target.Target{ID: "localhost"}, target.AuthContext{}, Query{Command: "no.such.command"})
	require.Error(t, err)
	assert.Equal(t, fserrors.ErrCodeNotFound, fserrors.CodeOf(err))
}

func TestLoopbackQueryCancelled(t *testing.T) {
	l := NewLoopback()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Query(ctx, target.Target{ID: "localhost"}, target.AuthContext{}, Query{Command: "cpu.count"})
	assert.Error(t, err)
}

func TestMockScriptedFailures(t *testing.T) {
	m := &Mock{
		ResolveErrs: map[string]error{"bad-dns": errors.New("no such host")},
		AuthErrs:    map[string]error{"bad-auth": errors.New("denied")},
	}
	ctx := context.Background()

	_, err := m.Resolve(ctx, "bad-dns")
	assert.Error(t, err)

	addr, err := m.Resolve(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "good", addr)

	assert.Error(t, m.Authenticate(ctx, target.Target{ID: "bad-auth"}, target.AuthContext{}))
	assert.NoError(t, m.Authenticate(ctx, target.Target{ID: "good"}, target.AuthContext{}))
}

func TestReliabilityWrapperBreakerOpens(t *testing.T) {
	failing := &Mock{
		QueryFunc: func(tgt target.Target, q Query) (*Result, error) {
			return nil, errors.New("connection reset")
		},
	}

	opts := DefaultReliabilityOptions()
	opts.ConsecutiveFailures = 2
	opts.QueriesPerSecond = 1000
	opts.Burst = 1000
	w := NewReliabilityWrapper(failing, opts)

	ctx := context.Background()
	tgt := target.Target{ID: "flaky"}

	// Trip the breaker with consecutive failures.
	for i := 0; i < 3; i++ {
		_, err := w.Query(ctx, tgt, target.AuthContext{}, Query{Command: "x"})
		assert.Error(t, err)
	}

	// Breaker is now open: fails fast with a transient-endpoint category and
	// without reaching the underlying transport.
	before := failing.QueryCount()
	_, err := w.Query(ctx, tgt, target.AuthContext{}, Query{Command: "x"})
	require.Error(t, err)
	assert.Equal(t, fserrors.ErrCodeTransientEndpoint, fserrors.CodeOf(err))
	assert.Equal(t, before, failing.QueryCount())
}

func TestReliabilityWrapperBreakerIsPerTarget(t *testing.T) {
	m := &Mock{
		QueryFunc: func(tgt target.Target, q Query) (*Result, error) {
			if tgt.ID == "flaky" {
				return nil, errors.New("connection reset")
			}
			return &Result{Raw: "ok"}, nil
		},
	}

	opts := DefaultReliabilityOptions()
	opts.ConsecutiveFailures = 1
	opts.QueriesPerSecond = 1000
	opts.Burst = 1000
	w := NewReliabilityWrapper(m, opts)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = w.Query(ctx, target.Target{ID: "flaky"}, target.AuthContext{}, Query{Command: "x"})
	}

	// Healthy target is unaffected by the flaky target's open breaker.
	res, err := w.Query(ctx, target.Target{ID: "healthy"}, target.AuthContext{}, Query{Command: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Raw)
}

func TestReliabilityWrapperDelegates(t *testing.T) {
	m := &Mock{}
	w := NewReliabilityWrapper(m, DefaultReliabilityOptions())
	ctx := context.Background()

	_, err := w.Resolve(ctx, "host-1")
	assert.NoError(t, err)
	assert.NoError(t, w.Probe(ctx, "host-1"))
	assert.NoError(t, w.CheckEndpoint(ctx, target.Target{ID: "host-1"}))
	assert.NoError(t, w.Authenticate(ctx, target.Target{ID: "host-1"}, target.AuthContext{}))
}
