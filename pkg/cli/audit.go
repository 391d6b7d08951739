/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/fleetscout/fleetscout/pkg/collector"
	"github.com/fleetscout/fleetscout/pkg/config"
	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/profile"
	"github.com/fleetscout/fleetscout/pkg/run"
	"github.com/fleetscout/fleetscout/pkg/serializer"
	"github.com/fleetscout/fleetscout/pkg/server"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

func auditCmd() *cli.Command {
	return &cli.Command{
		Name:                  "audit",
		EnableShellCompletion: true,
		Usage:                 "Run a full audit across the target fleet",
		Description: `Run the audit pipeline against every target:
  1. Pre-flight health gate (resolution, reachability, endpoint, auth)
  2. Capability profiling with per-target safe concurrency (cached, TTL 24h)
  3. Admission-controlled execution with dynamic local-pressure throttling
  4. Resilient collection with retries, backoff, and tiered fallbacks
  5. Streaming NDJSON result sink plus a consolidated session summary

The session summary can be output in JSON, YAML, or table format.

# Examples

Audit two hosts with strict health policy:
  fleetscout audit --targets host-a,host-b --strict

Skip profiling and force serial collection:
  fleetscout audit --targets-file fleet.txt --skip-profiling --concurrency 1`,
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
			&cli.StringFlag{
				Name:  "sink",
				Usage: "Result sink path (append-only NDJSON stream)",
				Value: "results.ndjson",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Capability profile cache directory (empty disables persistence)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Override per-target concurrency (0 uses profiled values)",
			},
			&cli.BoolFlag{
				Name:  "skip-profiling",
				Usage: "Skip capability profiling and use conservative defaults",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Abort the whole run when any target fails the health gate",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Deadline for the whole audit run",
				Value: defaults.AuditTimeout,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics and health probes on this address for the duration of the run (empty disables)",
			},
			&cli.StringSliceFlag{
				Name:  "service",
				Usage: "Service name to audit (can be repeated)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			if d := cmd.Duration("timeout"); d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			targets, err := loadTargets(cmd)
			if err != nil {
				return err
			}

			if addr := cmd.String("metrics-addr"); addr != "" {
				scfg := server.DefaultConfig()
				scfg.Addr = addr
				srv := server.NewServer(scfg)
				srv.SetReady(true)

				sctx, stopServer := context.WithCancel(ctx)
				done := make(chan struct{})
				go func() {
					defer close(done)
					if err := srv.Run(sctx); err != nil {
						slog.Warn("ops endpoint stopped", "error", err)
					}
				}()
				defer func() {
					stopServer()
					<-done
				}()
			}

			tr := buildTransport()

			var cache profile.Cache
			if dir := cmd.String("cache-dir"); dir != "" {
				cache, err = profile.NewFileCache(dir)
				if err != nil {
					return err
				}
			} else {
				cache = profile.NewMemoryCache()
			}

			factory := collector.NewDefaultFactory(tr)
			if services := cmd.StringSlice("service"); len(services) > 0 {
				factory.Services = services
			}

			runner := run.NewRunner(cfg)
			session, runErr := runner.Run(ctx, run.Options{
				Targets:             targets,
				Auth:                target.NewAuthContext(cmd.String("user"), os.Getenv(cmd.String("secret-env"))),
				Transport:           tr,
				Catalog:             collector.Catalog(factory),
				Cache:               cache,
				SinkPath:            cmd.String("sink"),
				Strict:              cmd.Bool("strict"),
				SkipProfiling:       cmd.Bool("skip-profiling"),
				ConcurrencyOverride: int(cmd.Int("concurrency")),
				Config:              cfg,
			})

			// The session document is emitted even for failed runs.
			if session != nil {
				w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
				if serr := w.Serialize(ctx, session); serr != nil && runErr == nil {
					runErr = serr
				}
				if c, ok := w.(serializer.Closer); ok {
					_ = c.Close()
				}
			}

			return runErr
		},
	}
}

func loadTargets(cmd *cli.Command) ([]target.Target, error) {
	if path := cmd.String("targets-file"); path != "" {
		return target.LoadList(filepath.Clean(path))
	}
	return target.ParseList(cmd.String("targets"))
}

func buildTransport() transport.Transport {
	// The loopback binding is the only one compiled in; remote bindings
	// (SSH, HTTP agent) plug in behind the same interface.
	return transport.NewReliabilityWrapper(transport.NewLoopback(), transport.DefaultReliabilityOptions())
}
