/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/fleetscout/fleetscout/pkg/config"
	"github.com/fleetscout/fleetscout/pkg/header"
	"github.com/fleetscout/fleetscout/pkg/health"
	"github.com/fleetscout/fleetscout/pkg/serializer"
	"github.com/fleetscout/fleetscout/pkg/target"
)

func healthcheckCmd() *cli.Command {
	return &cli.Command{
		Name:                  "healthcheck",
		EnableShellCompletion: true,
		Usage:                 "Run only the pre-flight health gate against the target fleet",
		Description: `Run the four-stage health gate (resolution, reachability, endpoint,
authentication) against every target without starting collection. The
report lists the first failed stage and a remediation hint per target.

The command exits non-zero when any target is unhealthy.

# Examples

Check a fleet file and emit the report as JSON:
  fleetscout healthcheck --targets-file fleet.txt --format json`,
		Flags: []cli.Flag{
			targetsFlag,
			targetsFileFlag,
			&cli.StringFlag{
				Name:  "user",
				Usage: "Remote user for the authenticated channel",
			},
			&cli.StringFlag{
				Name:  "secret-env",
				Usage: "Name of the environment variable holding the credential secret",
				Value: "FLEETSCOUT_SECRET",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			targets, err := loadTargets(cmd)
			if err != nil {
				return err
			}

			gate := health.NewGate(buildTransport())
			if cfg.Health.Throttle > 0 {
				gate.Throttle = cfg.Health.Throttle
			}
			if cfg.Health.StageTimeout > 0 {
				gate.StageTimeout = cfg.Health.StageTimeout
			}

			auth := target.NewAuthContext(cmd.String("user"), os.Getenv(cmd.String("secret-env")))
			report := gate.Validate(ctx, targets, auth)
			report.Header.Init(header.KindHealthReport, "")

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err := w.Serialize(ctx, report); err != nil {
				return err
			}
			if c, ok := w.(serializer.Closer); ok {
				_ = c.Close()
			}

			if n := report.UnhealthyCount(); n > 0 {
				return fmt.Errorf("%d of %d targets failed pre-flight checks", n, len(targets))
			}
			return nil
		},
	}
}
