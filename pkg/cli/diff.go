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

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:                  "diff",
		EnableShellCompletion: true,
		Usage:                 "Compare two result sinks and report fleet drift",
		Description: `Consolidate two NDJSON result sinks, typically consecutive runs of the
same audit, and report how fleet health moved: newly failing targets,
recovered targets, per-collector failure deltas, and the health-score
change.

# Examples

Compare yesterday's run against today's:
  fleetscout diff --from results-0829.ndjson --to results-0830.ndjson`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Baseline result sink path",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Current result sink path",
				Required: true,
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			drift, err := aggregate.DiffSinks(cmd.String("from"), cmd.String("to"))
			if err != nil {
				return err
			}
			drift.Header.Init(header.KindDrift, "")

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err := w.Serialize(ctx, drift); err != nil {
				return err
			}
			if c, ok := w.(serializer.Closer); ok {
				_ = c.Close()
			}
			return nil
		},
	}
}
