package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anetsop/rosterlab/internal/collect"
	"github.com/anetsop/rosterlab/internal/config"
	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/internal/ledger"
	"github.com/anetsop/rosterlab/internal/seed"
	"github.com/anetsop/rosterlab/pkg/models"
)

func newCollectCmd(a *app) *cobra.Command {
	var (
		baseDir   string
		reportDir string
		seeds     []string
		seedsFile string
		families  []string
		sortRows  bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Build one report per seed and family from collected result workbooks",
		Long: `Walk <base-dir>/seed <seed>/{CSO,AOA} for every configured seed, extract
the statistics of every result workbook and write <PREFIX>_seed_<seed>.xlsx
into the report directory. Missing directories and malformed workbooks are
listed in the summary and never stop the collection.`,
		Example: `  rosterlab collect -c rosterlab.yaml
  rosterlab collect --base-dir ./results --seed 1234567 --seed 7654321 --sort-rows`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			c := &a.cfg.Collect
			if cmd.Flags().Changed("base-dir") {
				c.BaseDir = baseDir
			}
			if cmd.Flags().Changed("report-dir") {
				c.ReportDir = reportDir
			}
			if cmd.Flags().Changed("sort-rows") {
				c.SortRows = sortRows
			}
			if len(seeds) > 0 {
				c.Seeds = seeds
			}
			if seedsFile != "" {
				extra, err := config.LoadSeedsFile(seedsFile)
				if err != nil {
					return usageError(err)
				}
				c.Seeds = append(c.Seeds, extra...)
			}
			if err := a.cfg.ValidateCollect(); err != nil {
				return usageError(err)
			}

			catalog := collect.Catalog{
				BaseDir:   c.BaseDir,
				ReportDir: c.ReportDir,
				SortRows:  c.SortRows,
			}
			seen := make(map[string]bool)
			for _, raw := range c.Seeds {
				s, err := seed.Validate(strings.TrimSpace(raw))
				if err != nil {
					return usageError(err)
				}
				if seen[string(s)] {
					continue
				}
				seen[string(s)] = true
				catalog.Seeds = append(catalog.Seeds, s)
			}
			for _, name := range families {
				f, err := lookupFamily(name)
				if err != nil {
					return err
				}
				catalog.Families = append(catalog.Families, f)
			}

			if workers < 0 {
				return usageError(fmt.Errorf("--workers cannot be negative, got %d", workers))
			}
			if workers == 0 {
				workers = a.cfg.Optimizer.Workers
			}
			return a.runCollect(cmd.Context(), catalog, workers)
		},
	}
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Root of the collected results (overrides collect.base_dir)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Where reports are written (overrides collect.report_dir)")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "Seed to collect; repeatable (replaces collect.seeds)")
	cmd.Flags().StringVar(&seedsFile, "seeds-file", "", "File listing additional seeds, one per line")
	cmd.Flags().StringSliceVar(&families, "family", nil, "Restrict to these families: "+allFamilyNames()+" (default: all)")
	cmd.Flags().BoolVar(&sortRows, "sort-rows", false, "Order rows by configuration instead of listing order")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Reports built concurrently (default: optimizer.workers)")
	return cmd
}

func (a *app) runCollect(ctx context.Context, catalog collect.Catalog, workers int) error {
	c, err := collect.New(catalog, workers, a.log)
	if err != nil {
		return usageError(err)
	}
	a.log.Info("collecting results", "base_dir", catalog.BaseDir, "seeds", len(catalog.Seeds))
	summary, err := c.Run(ctx)
	return a.finish(summary, err)
}

func newSeedCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print freshly generated seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return usageError(fmt.Errorf("--count must be at least 1, got %d", count))
			}
			for _, s := range seed.NewGenerator(nil).GenerateN(count) {
				fmt.Fprintln(a.stdout, s)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of distinct seeds")
	return cmd
}

func newFailuresCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "failures",
		Short: "List invocations whose last recorded outcome was not usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			if a.cfg.Optimizer.Ledger == "" {
				return usageError(fmt.Errorf("optimizer.ledger is not configured"))
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), openTimeout)
			defer cancel()
			l, err := ledger.Open(ctx, a.cfg.Optimizer.Ledger)
			if err != nil {
				return &ExitError{Code: exitFailures, Message: err.Error()}
			}
			defer l.Close()

			entries, err := l.Failures(ctx)
			if err != nil {
				return &ExitError{Code: exitFailures, Message: err.Error()}
			}
			failures := make([]models.Failure, 0, len(entries))
			for _, e := range entries {
				msg := e.Error
				if e.Stderr != "" {
					msg += ": " + e.Stderr
				}
				failures = append(failures, models.Failure{
					Kind:     models.FailureExternalProcess,
					Family:   e.Family,
					Seed:     e.Seed,
					Params:   e.Params,
					Subject:  e.Name,
					Status:   e.Status,
					ExitCode: e.ExitCode,
					Message:  msg,
				})
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(failures)
		},
	}
}

func allFamilyNames() string {
	var names []string
	for _, f := range family.All() {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}
