/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/fleetscout/fleetscout/pkg/logging"
	"github.com/fleetscout/fleetscout/pkg/serializer"
)

const (
	name           = "fleetscout"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags shared across commands.
var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (defaults to stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: fmt.Sprintf("Output format (supported values: %s)", serializer.SupportedFormats()),
		Value: string(serializer.FormatYAML),
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Config file path (default is ./fleetscout.yaml or ~/.fleetscout/fleetscout.yaml)",
		Sources: cli.EnvVars("FLEETSCOUT_CONFIG"),
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("FLEETSCOUT_LOG_LEVEL"),
	}

	targetsFlag = &cli.StringFlag{
		Name:    "targets",
		Aliases: []string{"t"},
		Usage:   "Comma-separated list of target hosts",
	}

	targetsFileFlag = &cli.StringFlag{
		Name:  "targets-file",
		Usage: "File with one target host per line",
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Fleet audit orchestrator",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `Audit a fleet of remote hosts: pre-flight health checks, capability
profiling with adaptive concurrency, resilient collection with retries and
tiered fallbacks, and a streaming result sink with consolidated summaries.`,
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			auditCmd(),
			healthcheckCmd(),
			consolidateCmd(),
			diffCmd(),
		},
	}
}

// Execute runs the CLI. Called by main.main(); SIGINT/SIGTERM cancel the
// run context so in-flight waits are interrupted promptly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
