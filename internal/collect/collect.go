// Package collect walks the per-seed result tree, extracts every artifact
// and writes one report per (seed, family).
package collect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anetsop/rosterlab/internal/extract"
	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/internal/metrics"
	"github.com/anetsop/rosterlab/internal/report"
	"github.com/anetsop/rosterlab/internal/sweep"
	"github.com/anetsop/rosterlab/pkg/logger"
	"github.com/anetsop/rosterlab/pkg/models"
)

// ErrDirectoryMissing is recorded when a (seed, family) directory is absent
var ErrDirectoryMissing = errors.New("result directory missing")

// reportExt is the report file extension
const reportExt = "xlsx"

// Catalog lists what to collect. It is read-only once built.
type Catalog struct {
	BaseDir   string
	ReportDir string
	Seeds     []models.Seed
	Families  []*family.Family
	// SortRows orders rows by the configuration encoded in each artifact
	// name; otherwise rows follow directory listing order.
	SortRows bool
}

// Dir returns the directory holding one family's artifacts for one seed,
// e.g. <base>/seed 123/AOA
func Dir(base string, seed models.Seed, f *family.Family) string {
	return filepath.Join(base, "seed "+string(seed), f.Dir)
}

// Collector runs a collection over a catalog
type Collector struct {
	catalog Catalog
	workers int
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates a collector. workers bounds how many reports are built at once.
func New(catalog Catalog, workers int, log *slog.Logger) (*Collector, error) {
	if catalog.BaseDir == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}
	if len(catalog.Seeds) == 0 {
		return nil, fmt.Errorf("catalog has no seeds")
	}
	if len(catalog.Families) == 0 {
		catalog.Families = family.All()
	}
	if catalog.ReportDir == "" {
		catalog.ReportDir = "."
	}
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Default
	}
	return &Collector{catalog: catalog, workers: workers, logger: log, metrics: metrics.NewCollector()}, nil
}

type pair struct {
	seed   models.Seed
	family *family.Family
}

// Run collects every (seed, family) pair. Failures of single artifacts or
// directories are recorded in the summary and never stop the run; only
// context cancellation is returned as an error.
func (c *Collector) Run(ctx context.Context) (*models.RunSummary, error) {
	c.metrics.Clear()
	c.metrics.Start()
	started := time.Now()

	var pairs []pair
	for _, s := range c.catalog.Seeds {
		for _, f := range c.catalog.Families {
			pairs = append(pairs, pair{seed: s, family: f})
		}
	}

	results := make([]*models.RunSummary, len(pairs))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, p := range pairs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = c.collectPair(ctx, p.seed, p.family)
			return nil
		})
	}
	_ = g.Wait()

	summary := &models.RunSummary{Command: "collect", StartedAt: started, Failures: []models.Failure{}}
	for _, r := range results {
		summary.Merge(r)
	}
	c.metrics.Stop()
	summary.Duration = c.metrics.Elapsed()
	summary.Durations = c.metrics.Summary()
	return summary, ctx.Err()
}

func (c *Collector) collectPair(ctx context.Context, seed models.Seed, f *family.Family) *models.RunSummary {
	out := &models.RunSummary{}
	dir := Dir(c.catalog.BaseDir, seed, f)
	log := c.logger.With("seed", string(seed), "family", f.Dir)

	files, err := listArtifacts(dir)
	if err != nil {
		log.Error("cannot resolve result directory", "dir", dir, "error", err)
		out.AddFailure(models.Failure{
			Kind:    models.FailurePathResolution,
			Family:  f.Name,
			Seed:    seed,
			Subject: dir,
			Message: err.Error(),
		})
		return out
	}

	type row struct {
		rec    models.ResultRecord
		cfg    models.Configuration
		parsed bool
	}
	var rows []row
	for _, path := range files {
		if ctx.Err() != nil {
			return out
		}
		out.Total++
		extractStart := time.Now()
		rec, err := extract.Extract(path, f)
		c.metrics.RecordExtraction(f.Name, err == nil, time.Since(extractStart))
		if err != nil {
			log.Warn("skipping malformed artifact", "file", filepath.Base(path), "error", err)
			out.AddFailure(models.Failure{
				Kind:    models.FailureMalformed,
				Family:  f.Name,
				Seed:    seed,
				Subject: path,
				Message: err.Error(),
			})
			continue
		}
		out.Succeeded++
		r := row{rec: rec}
		if _, cfg, err := sweep.ParseArtifactName(f, path); err == nil {
			r.cfg, r.parsed = cfg, true
		}
		rows = append(rows, r)
	}

	if c.catalog.SortRows {
		// unparseable names keep their listing order after every parsed one
		slices.SortStableFunc(rows, func(a, b row) int {
			switch {
			case a.parsed && b.parsed:
				return sweep.CompareConfigurations(f, a.cfg, b.cfg)
			case a.parsed:
				return -1
			case b.parsed:
				return 1
			}
			return 0
		})
	}

	records := make([]models.ResultRecord, len(rows))
	for i, r := range rows {
		records[i] = r.rec
	}
	table, err := report.Build(f.Columns(), records)
	if err == nil {
		path := filepath.Join(c.catalog.ReportDir, f.ReportName(string(seed), reportExt))
		if err = report.WriteXLSX(path, table); err == nil {
			log.Info("report written", "path", path, "rows", len(records))
			out.Reports = append(out.Reports, path)
			return out
		}
	}
	log.Error("failed to write report", "error", err)
	out.AddFailure(models.Failure{
		Kind:    models.FailureReport,
		Family:  f.Name,
		Seed:    seed,
		Subject: filepath.Join(c.catalog.ReportDir, f.ReportName(string(seed), reportExt)),
		Message: err.Error(),
	})
	return out
}

// listArtifacts returns the files directly inside dir, skipping office
// lock files ("~$name.xlsx"). Symlinks to files are followed; a dangling
// link is kept so extraction reports it.
func listArtifacts(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryMissing, dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Type().IsRegular():
		case e.Type()&fs.ModeSymlink != 0:
			if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		files = append(files, path)
	}
	return files, nil
}
