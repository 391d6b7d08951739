/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/fleetscout/fleetscout/pkg/aggregate"
	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/run"
)

func writeSink(t *testing.T, path string, results ...*executor.TaskResult) string {
	t.Helper()
	w, err := aggregate.Open(path, 10, time.Hour)
	require.NoError(t, err)
	for _, res := range results {
		require.NoError(t, w.Add(res))
	}
	require.NoError(t, w.Finalize())
	return path
}

func taskResult(target, collector string, status executor.Status) *executor.TaskResult {
	return &executor.TaskResult{TargetID: target, Collector: collector, Status: status, Attempts: 1}
}

func readJSON(t *testing.T, path string, doc any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, doc))
}

func TestConsolidateCommandStampsSummary(t *testing.T) {
	dir := t.TempDir()
	sink := writeSink(t, filepath.Join(dir, "results.ndjson"),
		taskResult("host-1", "osinfo", executor.StatusSuccess),
		taskResult("host-1", "uptime", executor.StatusFailed))
	out := filepath.Join(dir, "summary.json")

	err := consolidateCmd().Run(context.Background(),
		[]string{"consolidate", "--sink", sink, "--output", out, "--format", "json"})
	require.NoError(t, err)

	var summary aggregate.Summary
	readJSON(t, out, &summary)
	assert.Equal(t, header.KindSummary, summary.Kind)
	assert.Equal(t, header.APIVersion, summary.APIVersion)
	assert.Equal(t, 2, summary.Results)
	assert.Equal(t, 1, summary.Failed)
}

func TestDiffCommandStampsDrift(t *testing.T) {
	dir := t.TempDir()
	prev := writeSink(t, filepath.Join(dir, "prev.ndjson"),
		taskResult("host-1", "osinfo", executor.StatusSuccess))
	cur := writeSink(t, filepath.Join(dir, "cur.ndjson"),
		taskResult("host-1", "osinfo", executor.StatusFailed))
	out := filepath.Join(dir, "drift.json")

	err := diffCmd().Run(context.Background(),
		[]string{"diff", "--from", prev, "--to", cur, "--output", out, "--format", "json"})
	require.NoError(t, err)

	var drift aggregate.Drift
	readJSON(t, out, &drift)
	assert.Equal(t, header.KindDrift, drift.Kind)
	assert.Equal(t, []string{"host-1"}, drift.NewlyFailed)
	assert.Equal(t, -100, drift.ScoreDelta)
}

func TestHealthcheckCommandStampsReport(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "report.json")

	err := healthcheckCmd().Run(context.Background(),
		[]string{"healthcheck", "--targets", "localhost", "--output", out, "--format", "json"})
	require.NoError(t, err, "localhost passes every loopback gate stage")

	var report struct {
		Kind    header.Kind `json:"kind"`
		Targets []struct {
			TargetID string `json:"target_id"`
			Healthy  bool   `json:"healthy"`
		} `json:"targets"`
	}
	readJSON(t, out, &report)
	assert.Equal(t, header.KindHealthReport, report.Kind)
	require.Len(t, report.Targets, 1)
	assert.True(t, report.Targets[0].Healthy)
}

// A self-audit over the shipped loopback binding must produce a result for
// every built-in collector and no failures.
func TestAuditCommandSelfAudit(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	sink := filepath.Join(dir, "results.ndjson")
	out := filepath.Join(dir, "session.json")

	err := auditCmd().Run(context.Background(), []string{
		"audit",
		"--targets", "localhost",
		"--skip-profiling",
		"--sink", sink,
		"--output", out,
		"--format", "json",
	})
	require.NoError(t, err)

	var session run.Session
	readJSON(t, out, &session)
	assert.Equal(t, header.KindSession, session.Kind)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 5, session.Summary.Results, "one result per built-in collector")
	assert.Zero(t, session.Summary.Failed, "the loopback binding answers every collector")
	assert.Zero(t, session.Summary.Skipped)
}

func TestAuditCommandTimeoutDefault(t *testing.T) {
	for _, f := range auditCmd().Flags {
		if d, ok := f.(*cli.DurationFlag); ok && d.Name == "timeout" {
			assert.Equal(t, defaults.AuditTimeout, d.Value)
			return
		}
	}
	t.Fatal("audit command has no timeout flag")
}
