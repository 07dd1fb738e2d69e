package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/corvidlabs/corvid/internal/control"
	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/diag"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version. Called
// by main, typically with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the corvid CLI and returns an error if any command fails.
// A run in progress is cancelled on SIGINT/SIGTERM so the engine's worker
// pool can drain in-flight invocations instead of being killed mid-request.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var verbose bool

	root := &cobra.Command{
		Use:          "corvid",
		Short:        "corvid runs a concurrent, tag-routed web scraping engine",
		Long:         `corvid drives a bounded-concurrency scraping engine from a TOML config: seed URLs, dispatch concurrency, and retry tuning.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("corvid %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newDiagCmd())

	return root.ExecuteContext(ctx)
}

func newRunCmd() *cobra.Command {
	var controlAddr string
	var noDashboard bool

	cmd := &cobra.Command{
		Use:   "run <config.toml>",
		Short: "run the engine against a TOML config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg, err := LoadConfig(args[0])
			if err != nil {
				return err
			}
			if controlAddr != "" {
				cfg.ControlAddr = controlAddr
			}
			if noDashboard {
				cfg.Dashboard = false
			}

			runID := correlationID()
			logger = logger.With("run_id", runID)
			p := newProgress(logger)

			e, m, router := buildEngine(cfg, logger)

			ctx := cmd.Context()
			if cfg.ControlAddr != "" {
				controlServer := control.New(cfg.ControlAddr, control.Deps[corebackend.Client, struct{}]{
					Metric:    m,
					Router:    router,
					Deferrals: e.Deferrals(),
				})
				go func() {
					if err := controlServer.ListenAndServe(ctx); err != nil {
						logger.Error("control plane stopped", "err", err)
					}
				}()
			}

			var runErr error
			if cfg.Dashboard {
				runErr = runDashboard(runID, m, e, ctx)
			} else {
				_, runErr = e.Run(ctx)
			}
			p.done(fmt.Sprintf("run %s finished: %d successes, %d failures", runID, m.Successes(), m.Failures()))
			return runErr
		},
	}
	cmd.Flags().StringVar(&controlAddr, "control-addr", "", "address for the HTTP control plane (empty disables it)")
	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "disable the live bubbletea dashboard")
	return cmd
}

func newDiagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag <config.toml>",
		Short: "print the example router's routing topology as DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			if _, err := LoadConfig(args[0]); err != nil {
				return err
			}
			router := buildRouter(logger)
			fmt.Println(diag.RoutesDOT(router))
			return nil
		},
	}
	return cmd
}
