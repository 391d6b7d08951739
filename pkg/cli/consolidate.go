/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/fleetscout/fleetscout/pkg/aggregate"
	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/serializer"
)

func consolidateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "consolidate",
		EnableShellCompletion: true,
		Usage:                 "Summarize an existing result sink",
		Description: `Read an NDJSON result sink produced by a previous audit and emit the
consolidated summary: per-status counts, per-target and per-collector
failure breakdowns, and the fleet health score. Consolidation is
idempotent and tolerates a trailing partial line from an interrupted
run.

# Examples

Summarize yesterday's sink as a table:
  fleetscout consolidate --sink results.ndjson --format table`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sink",
				Usage: "Result sink path (append-only NDJSON stream)",
				Value: "results.ndjson",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			summary, err := aggregate.Consolidate(cmd.String("sink"))
			if err != nil {
				return err
			}
			summary.Header.Init(header.KindSummary, "")

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err := w.Serialize(ctx, summary); err != nil {
				return err
			}
			if c, ok := w.(serializer.Closer); ok {
				_ = c.Close()
			}
			return nil
		},
	}
}
