package aggregate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/executor"
)

func TestDiffSummariesTargetMovement(t *testing.T) {
	prev := &Summary{
		HealthScore: 80,
		Targets: map[string]TargetSummary{
			"stable":     {Success: 5},
			"recovering": {Success: 4, Failed: 1},
			"retired":    {Failed: 5},
		},
		CollectorFailures: map[string]int{"osinfo": 1, "storage": 5},
		ConsolidatedAt:    time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC),
	}
	cur := &Summary{
		HealthScore: 70,
		Targets: map[string]TargetSummary{
			"stable":     {Success: 4, Failed: 1},
			"recovering": {Success: 5},
			"brand-new":  {Failed: 5},
		},
		CollectorFailures: map[string]int{"osinfo": 6},
		ConsolidatedAt:    time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
	}

	d, err := DiffSummaries(prev, cur)
	require.NoError(t, err)

	assert.Equal(t, -10, d.ScoreDelta)
	assert.Equal(t, []string{"brand-new", "stable"}, d.NewlyFailed)
	assert.Equal(t, []string{"recovering"}, d.Recovered, "a target leaving the fleet is not a recovery")
	assert.Equal(t, map[string]int{"osinfo": 5, "storage": -5}, d.CollectorDelta)
	assert.Equal(t, prev.ConsolidatedAt, d.From)
	assert.Equal(t, cur.ConsolidatedAt, d.To)
}

func TestDiffSummariesNoChange(t *testing.T) {
	s := &Summary{
		HealthScore:       100,
		Targets:           map[string]TargetSummary{"host-1": {Success: 5}},
		CollectorFailures: map[string]int{},
	}

	d, err := DiffSummaries(s, s)
	require.NoError(t, err)

	assert.Zero(t, d.ScoreDelta)
	assert.Empty(t, d.NewlyFailed)
	assert.Empty(t, d.Recovered)
	assert.Empty(t, d.CollectorDelta)
}

func TestDiffSummariesRequiresBoth(t *testing.T) {
	_, err := DiffSummaries(nil, &Summary{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestDiffSinks(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, results ...*executor.TaskResult) string {
		path := filepath.Join(dir, name)
		w, err := Open(path, 10, time.Hour)
		require.NoError(t, err)
		for _, res := range results {
			require.NoError(t, w.Add(res))
		}
		require.NoError(t, w.Finalize())
		return path
	}

	prev := write("prev.ndjson",
		result("host-1", "osinfo", executor.StatusSuccess),
		result("host-2", "osinfo", executor.StatusSuccess))
	cur := write("cur.ndjson",
		result("host-1", "osinfo", executor.StatusSuccess),
		result("host-2", "osinfo", executor.StatusFailed))

	d, err := DiffSinks(prev, cur)
	require.NoError(t, err)
	assert.Equal(t, -50, d.ScoreDelta)
	assert.Equal(t, []string{"host-2"}, d.NewlyFailed)
}
