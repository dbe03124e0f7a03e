package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/anetsop/rosterlab/internal/family"
)

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultDataset     = "Pairings.csv"
	defaultStartDate   = "2011-11-1"
	defaultEndDate     = "2012-3-4"
	defaultGenerations = 200
	defaultTimeout     = "2h"
	defaultBackoff     = "exponential"
	defaultBackoffBase = "10s"
	defaultWorkers     = 1
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

// defaultFamilies reproduces the historical experiment grids
func defaultFamilies() map[string]*FamilyConfig {
	return map[string]*FamilyConfig{
		family.AOA.Name: {
			Population: family.AOA.Population,
			Sweep: []Dimension{
				{Name: "C2", Values: []float64{2, 4, 6}},
				{Name: "C1", Values: []float64{1, 2}},
				{Name: "C3", Values: []float64{1, 2}},
				{Name: "C4", Values: []float64{0.5, 1}},
			},
			Repeat: map[string]float64{"C1": 1, "C2": 2, "C3": 2, "C4": 0.5},
		},
		family.MultiCSO.Name: {
			Population: family.MultiCSO.Population,
			Sweep: []Dimension{
				{Name: "FL", Start: float64Ptr(0), Stop: float64Ptr(2.0), Step: 0.1, Decimals: intPtr(1)},
			},
			Repeat: map[string]float64{"FL": 1},
		},
	}
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// familyKeys groups configured family keys by the family they name.
// Unknown keys are left out.
func familyKeys(families map[string]*FamilyConfig) map[string][]string {
	out := make(map[string][]string)
	for name := range families {
		if f, err := family.Lookup(name); err == nil {
			out[f.Name] = append(out[f.Name], name)
		}
	}
	for _, keys := range out {
		sort.Strings(keys)
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}

	o := &cfg.Optimizer
	if len(o.Command) == 0 {
		o.Command = []string{"go", "run", "airlineCrewRostering.go"}
	}
	if o.Dataset == "" {
		o.Dataset = defaultDataset
	}
	if o.StartDate == "" {
		o.StartDate = defaultStartDate
	}
	if o.EndDate == "" {
		o.EndDate = defaultEndDate
	}
	if o.Generations == 0 {
		o.Generations = defaultGenerations
	}
	if o.ArtifactDir == "" {
		// the optimizer writes --results files into ./output of its working directory
		o.ArtifactDir = filepath.Join(o.WorkDir, "output")
	}
	if o.Timeout == "" {
		o.Timeout = defaultTimeout
	}
	if o.Backoff == "" {
		o.Backoff = defaultBackoff
	}
	if o.BackoffBase == "" {
		o.BackoffBase = defaultBackoffBase
	}
	if o.Workers == 0 {
		o.Workers = defaultWorkers
	}

	defaults := defaultFamilies()
	if cfg.Families == nil {
		cfg.Families = make(map[string]*FamilyConfig)
	}
	// accept "CSO" or "aoa" as keys, store under the canonical selector.
	// Keys that collide on one family stay as written and fail validation.
	groups := familyKeys(cfg.Families)
	for canonical, keys := range groups {
		if len(keys) != 1 || keys[0] == canonical {
			continue
		}
		cfg.Families[canonical] = cfg.Families[keys[0]]
		delete(cfg.Families, keys[0])
	}
	for name, def := range defaults {
		if len(groups[name]) > 1 {
			continue
		}
		fc, ok := cfg.Families[name]
		if !ok || fc == nil {
			cfg.Families[name] = def
			continue
		}
		if fc.Population == 0 {
			fc.Population = def.Population
		}
		if len(fc.Sweep) == 0 {
			fc.Sweep = def.Sweep
		}
		if len(fc.Repeat) == 0 {
			fc.Repeat = def.Repeat
		}
	}

	if cfg.Collect.ReportDir == "" {
		cfg.Collect.ReportDir = "."
	}
}
