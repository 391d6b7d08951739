package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/defaults"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaults.FleetConcurrencyCeiling, cfg.Scheduler.FleetCeiling)
	assert.Equal(t, defaults.MaxRetries, cfg.Executor.MaxRetries)
	assert.Equal(t, defaults.SinkBufferSize, cfg.Sink.BufferSize)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetscout.yaml")
	body := `
scheduler:
  fleet_ceiling: 4
executor:
  max_retries: 5
  base_delay: 500ms
sink:
  buffer_size: 16
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scheduler.FleetCeiling)
	assert.Equal(t, 5, cfg.Executor.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Executor.BaseDelay)
	assert.Equal(t, 16, cfg.Sink.BufferSize)
	assert.Equal(t, "debug", cfg.Logger.Level)

	// Unset sections keep their defaults.
	assert.Equal(t, defaults.HealthCheckThrottle, cfg.Health.Throttle)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err, "an explicitly named file must exist")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  fleet_ceiling: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestRetryPolicyMapping(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	rp := cfg.RetryPolicy()
	assert.Equal(t, defaults.MaxRetries, rp.MaxRetries)
	assert.Equal(t, defaults.RetryBaseDelay, rp.BaseDelay)
}

func TestProfilePolicyMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiler:\n  cache_ttl: 1h\n  max_concurrency: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	p := cfg.ProfilePolicy()
	assert.Equal(t, time.Hour, p.TTL)
	assert.Equal(t, 2, p.MaxConcurrency)
	assert.NotEmpty(t, p.TierTimeouts, "default tier table survives the mapping")
}
