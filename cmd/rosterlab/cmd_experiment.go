package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anetsop/rosterlab/internal/dispatch"
	"github.com/anetsop/rosterlab/internal/experiment"
	"github.com/anetsop/rosterlab/internal/ledger"
	"github.com/anetsop/rosterlab/internal/seed"
	"github.com/anetsop/rosterlab/pkg/models"
)

// batchFlags are shared by sweep and repeat
type batchFlags struct {
	resume  bool
	dryRun  bool
	workers int
}

func (b *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&b.resume, "resume", false, "Skip invocations the ledger records as succeeded")
	cmd.Flags().BoolVar(&b.dryRun, "dry-run", false, "Print the optimizer command lines without running them")
	cmd.Flags().IntVarP(&b.workers, "workers", "w", 0, "Concurrent optimizer runs (overrides config)")
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		flags   batchFlags
		seedArg string
	)
	cmd := &cobra.Command{
		Use:   "sweep <family>",
		Short: "Run the optimizer over every configuration of a family's parameter space",
		Long: `Run the optimizer once per configuration of the family's configured
sweep (multiCSO or AOA), all under one seed. The seed is generated once
when --seed is not given.`,
		Example: `  rosterlab sweep AOA --seed 1234567
  rosterlab sweep multiCSO -c rosterlab.yaml --workers 4 --resume`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lookupFamily(args[0])
			if err != nil {
				return err
			}
			var s models.Seed
			if seedArg != "" {
				if s, err = seed.Validate(seedArg); err != nil {
					return usageError(err)
				}
			}
			return a.runBatch(cmd.Context(), flags, func(d *experiment.Driver) ([]dispatch.Invocation, error) {
				return d.PlanSweep(f, s)
			}, "sweep")
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&seedArg, "seed", "s", "", "Seed shared by every configuration (generated when empty)")
	return cmd
}

func newRepeatCmd(a *app) *cobra.Command {
	var (
		flags batchFlags
		times int
	)
	cmd := &cobra.Command{
		Use:   "repeat <family>",
		Short: "Run a family's fixed configuration under several fresh seeds",
		Example: `  rosterlab repeat multiCSO --times 10
  rosterlab repeat AOA -n 5 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lookupFamily(args[0])
			if err != nil {
				return err
			}
			if times < 1 {
				return usageError(fmt.Errorf("--times must be at least 1, got %d", times))
			}
			return a.runBatch(cmd.Context(), flags, func(d *experiment.Driver) ([]dispatch.Invocation, error) {
				return d.PlanRepeat(f, times)
			}, "repeat")
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&times, "times", "n", 1, "Number of repetitions, one seed each")
	return cmd
}

type planFunc func(d *experiment.Driver) ([]dispatch.Invocation, error)

func (a *app) runBatch(ctx context.Context, flags batchFlags, plan planFunc, command string) error {
	if err := a.setup(); err != nil {
		return err
	}
	if flags.workers < 0 {
		return usageError(fmt.Errorf("--workers cannot be negative, got %d", flags.workers))
	}
	if flags.workers > 0 {
		a.cfg.Optimizer.Workers = flags.workers
	}

	runner, err := a.newDispatcher()
	if err != nil {
		return err
	}

	var l *ledger.Ledger
	if a.cfg.Optimizer.Ledger != "" && !flags.dryRun {
		openCtx, cancel := context.WithTimeout(ctx, openTimeout)
		l, err = ledger.Open(openCtx, a.cfg.Optimizer.Ledger)
		cancel()
		if err != nil {
			return &ExitError{Code: exitFailures, Message: err.Error()}
		}
		defer l.Close()
	} else if flags.resume && !flags.dryRun {
		a.log.Warn("--resume has no effect without optimizer.ledger")
	}

	d, err := experiment.New(experiment.Options{
		Config: a.cfg,
		Runner: runner,
		Ledger: l,
		Logger: a.log,
		Resume: flags.resume,
	})
	if err != nil {
		return &ExitError{Code: exitFailures, Message: err.Error()}
	}

	invs, err := plan(d)
	if err != nil {
		return usageError(err)
	}

	if flags.dryRun {
		for _, inv := range invs {
			line := append(append([]string(nil), a.cfg.Optimizer.Command...), dispatch.BuildArgs(inv)...)
			fmt.Fprintln(a.stdout, strings.Join(line, " "))
		}
		return nil
	}

	summary, err := d.Run(ctx, command, invs)
	return a.finish(summary, err)
}
