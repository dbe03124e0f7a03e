package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/anetsop/rosterlab/internal/config"
	"github.com/anetsop/rosterlab/internal/dispatch"
	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/logger"
	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// app holds state shared by every subcommand
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "rosterlab",
		Short: "Batch controller and report compiler for the crew rostering optimizer",
		Long: `rosterlab runs the airline crew rostering optimizer across parameter
sweeps and multi-seed repetitions, then collects the per-run result
workbooks into one comparison report per seed and algorithm family.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to the YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(
		newSweepCmd(a),
		newRepeatCmd(a),
		newCollectCmd(a),
		newSeedCmd(a),
		newFailuresCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and installs the logger
func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath == "" {
		cfg, err = config.ParseConfigYAML(nil)
	} else {
		cfg, err = config.LoadConfig(a.configPath)
	}
	if err != nil {
		return usageError(err)
	}

	if a.logLevel != "" {
		switch a.logLevel {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = a.logLevel
		default:
			return usageError(fmt.Errorf("invalid log-level %q: must be debug, info, warn or error", a.logLevel))
		}
	}
	if a.logFormat != "" {
		if a.logFormat != "text" && a.logFormat != "json" {
			return usageError(fmt.Errorf("invalid log-format %q: must be text or json", a.logFormat))
		}
		cfg.LogFormat = a.logFormat
	}

	a.cfg = cfg
	a.log = logger.NewWithFormat(cfg.LogFormat, cfg.LogLevel, a.stderr)
	logger.SetDefault(a.log)
	a.log.Debug("configuration loaded", "path", a.configPath, "workers", cfg.Optimizer.Workers)
	return nil
}

func (a *app) newDispatcher() (*dispatch.Dispatcher, error) {
	o := a.cfg.Optimizer
	timeout, err := o.GetTimeout()
	if err != nil {
		return nil, usageError(err)
	}
	base, err := o.GetBackoffBase()
	if err != nil {
		return nil, usageError(err)
	}
	d, err := dispatch.New(dispatch.Options{
		Command: o.Command,
		WorkDir: o.WorkDir,
		Timeout: timeout,
		Retries: o.Retries,
		Backoff: utils.BackoffFromConfig(o.Backoff, base, 0),
		Logger:  a.log,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return d, nil
}

func lookupFamily(name string) (*family.Family, error) {
	f, err := family.Lookup(name)
	if err != nil {
		return nil, usageError(err)
	}
	return f, nil
}

// finish prints the summary as JSON and turns recorded failures into exit code 1
func (a *app) finish(summary *models.RunSummary, runErr error) error {
	if summary != nil {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return &ExitError{Code: exitFailures, Message: fmt.Sprintf("failed to write summary: %v", err)}
		}
	}
	if runErr != nil {
		return &ExitError{Code: exitFailures, Message: runErr.Error()}
	}
	if summary != nil && !summary.OK() {
		return &ExitError{
			Code:    exitFailures,
			Message: fmt.Sprintf("%s finished with %d failure(s) in %s", summary.Command, len(summary.Failures), utils.FormatDuration(summary.Duration)),
		}
	}
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "rosterlab version %s\n", version)
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			out, err := config.MarshalConfigYAML(a.cfg)
			if err != nil {
				return &ExitError{Code: exitFailures, Message: err.Error()}
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}

// openTimeout bounds opening the ledger database
const openTimeout = 30 * time.Second
