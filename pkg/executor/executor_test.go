package executor

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
)

type fakeCollector struct {
	name   string
	tiers  int
	invoke func(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error)
}

func (c *fakeCollector) Name() string { return c.name }
func (c *fakeCollector) Tiers() int   { return c.tiers }
func (c *fakeCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	return c.invoke(ctx, tgt, auth, tier)
}

func testTask(c Collector) TaskDescriptor {
	return TaskDescriptor{
		Target:    target.Target{ID: "host-1"},
		Collector: c,
		Timeout:   time.Second,
		Retry:     RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond},
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	c := &fakeCollector{
		name:  "osinfo",
		tiers: 3,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			return map[string]string{"os": "linux"}, nil
		},
	}

	res := New().Execute(context.Background(), testTask(c))

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.FallbackTier)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.Note)
	assert.NotNil(t, res.Payload)
}

func TestExecuteFallbackAcrossTiers(t *testing.T) {
	// Tiers 1 and 2 always fail transiently; tier 3 succeeds immediately.
	// With 3 retries that is 4 attempts per exhausted tier plus the one
	// succeeding attempt: 2*4 + 1 = 9 total.
	c := &fakeCollector{
		name:  "storage",
		tiers: 3,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, tier int) (any, error) {
			if tier < 3 {
				return nil, errors.New(errors.ErrCodeTransientNetwork, "connection reset")
			}
			return "fallback data", nil
		},
	}

	res := New().Execute(context.Background(), testTask(c))

	assert.Equal(t, StatusPartiallyDegraded, res.Status)
	assert.Equal(t, 3, res.FallbackTier)
	assert.Equal(t, 9, res.Attempts)
	assert.NotEmpty(t, res.Note, "degraded results must explain the fallback")
	assert.Equal(t, "fallback data", res.Payload)
}

func TestExecuteBackoffDoubles(t *testing.T) {
	c := &fakeCollector{
		name:  "uptime",
		tiers: 1,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			return nil, errors.New(errors.ErrCodeTransientEndpoint, "busy")
		},
	}
	task := testTask(c)
	task.Retry = RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond}

	res := New().Execute(context.Background(), task)

	require.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Trail, 4)
	assert.Equal(t, 10*time.Millisecond, res.Trail[0].Backoff)
	assert.Equal(t, 20*time.Millisecond, res.Trail[1].Backoff)
	assert.Equal(t, 40*time.Millisecond, res.Trail[2].Backoff)
	assert.Zero(t, res.Trail[3].Backoff, "no backoff after the final attempt")
}

func TestExecuteFatalSkipsRetriesButFallsBack(t *testing.T) {
	c := &fakeCollector{
		name:  "services",
		tiers: 2,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, tier int) (any, error) {
			if tier == 1 {
				return nil, errors.New(errors.ErrCodeUnauthorized, "access denied")
			}
			return "tier-2 data", nil
		},
	}

	res := New().Execute(context.Background(), testTask(c))

	assert.Equal(t, StatusPartiallyDegraded, res.Status)
	assert.Equal(t, 2, res.FallbackTier)
	assert.Equal(t, 2, res.Attempts, "fatal categories are not retried within a tier")
}

func TestExecuteUnknownRetriedOnce(t *testing.T) {
	c := &fakeCollector{
		name:  "netconf",
		tiers: 1,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			return nil, stderrors.New("something odd happened")
		},
	}

	res := New().Execute(context.Background(), testTask(c))

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 2, res.Attempts, "unclassified failures get exactly one retry")
	assert.Equal(t, errors.ErrCodeUnknown, res.ErrorCategory)
	assert.NotEmpty(t, res.Remediation)
}

func TestExecuteAllTiersExhausted(t *testing.T) {
	c := &fakeCollector{
		name:  "osinfo",
		tiers: 2,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			return nil, errors.New(errors.ErrCodeNotFound, "capability missing")
		},
	}

	res := New().Execute(context.Background(), testTask(c))

	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, res.FallbackTier)
	assert.Equal(t, errors.ErrCodeNotFound, res.ErrorCategory)
	assert.NotEmpty(t, res.Error)
	assert.NotEmpty(t, res.Remediation)
	// Fatal category, two tiers, one attempt each.
	assert.Equal(t, 2, res.Attempts)
}

func TestExecuteAttemptDeadline(t *testing.T) {
	c := &fakeCollector{
		name:  "uptime",
		tiers: 1,
		invoke: func(ctx context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	task := testTask(c)
	task.Timeout = 20 * time.Millisecond
	task.Retry = RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond}

	res := New().Execute(context.Background(), task)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, errors.ErrCodeTimeout, res.ErrorCategory)
}

func TestExecuteCancellationStopsBackoff(t *testing.T) {
	c := &fakeCollector{
		name:  "storage",
		tiers: 3,
		invoke: func(_ context.Context, _ target.Target, _ target.AuthContext, _ int) (any, error) {
			return nil, errors.New(errors.ErrCodeTransientNetwork, "connection reset")
		},
	}
	task := testTask(c)
	task.Retry = RetryPolicy{MaxRetries: 3, BaseDelay: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := New().Execute(ctx, task)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Less(t, time.Since(start), time.Second, "cancellation must interrupt backoff waits")
}
