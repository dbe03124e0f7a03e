// Package experiment drives parameter sweeps and multi-seed repetitions of
// the optimizer and summarizes their outcomes.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anetsop/rosterlab/internal/config"
	"github.com/anetsop/rosterlab/internal/dispatch"
	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/internal/ledger"
	"github.com/anetsop/rosterlab/internal/metrics"
	"github.com/anetsop/rosterlab/internal/seed"
	"github.com/anetsop/rosterlab/internal/sweep"
	"github.com/anetsop/rosterlab/pkg/logger"
	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// Options configures a Driver
type Options struct {
	Config *config.Config
	Runner dispatch.Runner
	// Ledger may be nil, in which case nothing is persisted and Resume has no effect
	Ledger  *ledger.Ledger
	Seeds   *seed.Generator
	Metrics *metrics.Collector
	Logger  *slog.Logger
	// Resume skips invocations the ledger already records as succeeded
	Resume bool
}

// Driver turns a family's configured space into invocations and runs them
type Driver struct {
	cfg     *config.Config
	runner  dispatch.Runner
	ledger  *ledger.Ledger
	seeds   *seed.Generator
	metrics *metrics.Collector
	logger  *slog.Logger
	resume  bool
}

// New creates a driver
func New(opts Options) (*Driver, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if opts.Seeds == nil {
		opts.Seeds = seed.NewGenerator(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default
	}
	return &Driver{
		cfg:     opts.Config,
		runner:  opts.Runner,
		ledger:  opts.Ledger,
		seeds:   opts.Seeds,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		resume:  opts.Resume,
	}, nil
}

// Space builds the configured parameter space of a family
func (d *Driver) Space(f *family.Family) (*sweep.Space, error) {
	fc, err := d.familyConfig(f)
	if err != nil {
		return nil, err
	}
	dims := make([]sweep.Dimension, 0, len(fc.Sweep))
	for _, cd := range fc.Sweep {
		dims = append(dims, toDimension(cd))
	}
	space, err := sweep.NewSpace(f, dims)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep for %s: %w", f.Name, err)
	}
	return space, nil
}

// PlanSweep returns the invocations of a full sweep under one seed. An
// empty seed is generated once and shared by every configuration.
func (d *Driver) PlanSweep(f *family.Family, s models.Seed) ([]dispatch.Invocation, error) {
	space, err := d.Space(f)
	if err != nil {
		return nil, err
	}
	if s == "" {
		s = d.seeds.Generate()
	}
	fc, _ := d.familyConfig(f)

	invs := make([]dispatch.Invocation, 0, space.Count())
	for cfg := range space.Configurations() {
		invs = append(invs, dispatch.NewInvocation(f, cfg, s, fc.Population, d.settings()))
	}
	return invs, nil
}

// PlanRepeat returns times invocations of the family's repeat
// configuration, each under a fresh seed.
func (d *Driver) PlanRepeat(f *family.Family, times int) ([]dispatch.Invocation, error) {
	if times < 1 {
		return nil, fmt.Errorf("repeat count must be at least 1, got %d", times)
	}
	space, err := d.Space(f)
	if err != nil {
		return nil, err
	}
	fc, _ := d.familyConfig(f)
	cfg, err := space.Fixed(fc.Repeat)
	if err != nil {
		return nil, fmt.Errorf("invalid repeat configuration for %s: %w", f.Name, err)
	}

	invs := make([]dispatch.Invocation, 0, times)
	for _, s := range d.seeds.GenerateN(times) {
		invs = append(invs, dispatch.NewInvocation(f, cfg, s, fc.Population, d.settings()))
	}
	return invs, nil
}

// Sweep runs every configuration of the family's space under one seed
func (d *Driver) Sweep(ctx context.Context, f *family.Family, s models.Seed) (*models.RunSummary, error) {
	invs, err := d.PlanSweep(f, s)
	if err != nil {
		return nil, err
	}
	d.logger.Info("starting sweep", "family", f.Name, "seed", string(invs[0].Seed), "configurations", len(invs))
	return d.Run(ctx, "sweep", invs)
}

// Repeat runs the family's repeat configuration times, one seed per run
func (d *Driver) Repeat(ctx context.Context, f *family.Family, times int) (*models.RunSummary, error) {
	invs, err := d.PlanRepeat(f, times)
	if err != nil {
		return nil, err
	}
	d.logger.Info("starting repetitions", "family", f.Name, "params", invs[0].Config.String(), "times", times)
	return d.Run(ctx, "repeat", invs)
}

// Run dispatches invocations through the worker pool. Every invocation that
// does not leave a usable artifact is listed in the summary; a failed
// invocation never stops the rest.
func (d *Driver) Run(ctx context.Context, command string, invs []dispatch.Invocation) (*models.RunSummary, error) {
	started := time.Now()
	batch := utils.GenerateBatchID(command)
	summary := &models.RunSummary{
		Batch:     batch,
		Command:   command,
		StartedAt: started,
		Total:     len(invs),
		Failures:  []models.Failure{},
	}

	pending := make([]dispatch.Invocation, 0, len(invs))
	for _, inv := range invs {
		if d.resume {
			done, err := d.ledger.Succeeded(ctx, inv.OutputName)
			if err != nil {
				return nil, fmt.Errorf("failed to consult ledger: %w", err)
			}
			if done {
				d.logger.Info("skipping finished invocation", "results", inv.OutputName)
				summary.Skipped++
				continue
			}
		}
		pending = append(pending, inv)
	}

	pool := &dispatch.Pool{
		Runner:  d.runner,
		Workers: d.cfg.Optimizer.Workers,
		OnOutcome: func(out dispatch.Outcome) {
			d.metrics.RecordInvocation(out.Invocation.Family.Name, out.Status, out.Duration())
			// a cancelled context must not stop the outcome from being recorded
			if err := d.ledger.Record(context.WithoutCancel(ctx), batch, out); err != nil {
				d.logger.Error("failed to record outcome", "results", out.Invocation.OutputName, "error", err)
			}
		},
	}
	for _, out := range pool.RunAll(ctx, pending) {
		if out.Status.Usable() {
			summary.Succeeded++
			continue
		}
		summary.AddFailure(out.Failure())
	}

	summary.Duration = time.Since(started)
	summary.Durations = d.metrics.Summary()
	d.logger.Info("batch finished",
		"batch", batch,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", utils.FormatDuration(summary.Duration),
	)
	return summary, ctx.Err()
}

func (d *Driver) settings() dispatch.Settings {
	o := d.cfg.Optimizer
	return dispatch.Settings{
		Dataset:     o.Dataset,
		StartDate:   o.StartDate,
		EndDate:     o.EndDate,
		Generations: o.Generations,
		ArtifactDir: o.ArtifactDir,
	}
}

func (d *Driver) familyConfig(f *family.Family) (*config.FamilyConfig, error) {
	fc, ok := d.cfg.Families[f.Name]
	if !ok || fc == nil {
		return nil, fmt.Errorf("%w: %s is not configured", family.ErrUnknownFamily, f.Name)
	}
	return fc, nil
}

func toDimension(cd config.Dimension) sweep.Dimension {
	if !cd.IsScan() {
		return sweep.Discrete(cd.Name, cd.Values...)
	}
	decimals := sweep.DefaultDecimals
	if cd.Decimals != nil {
		decimals = *cd.Decimals
	}
	var start, stop float64
	if cd.Start != nil {
		start = *cd.Start
	}
	if cd.Stop != nil {
		stop = *cd.Stop
	}
	return sweep.Scan(cd.Name, start, stop, cd.Step, decimals)
}
