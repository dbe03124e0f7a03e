package config

import (
	"fmt"
	"time"
)

// Config is the rosterlab configuration file
type Config struct {
	LogLevel  string                   `yaml:"log_level"`
	LogFormat string                   `yaml:"log_format"`
	Optimizer Optimizer                `yaml:"optimizer"`
	Families  map[string]*FamilyConfig `yaml:"families"`
	Collect   Collect                  `yaml:"collect"`
}

// Optimizer describes how the external optimizer is invoked
type Optimizer struct {
	// Command is the program and its leading arguments, e.g. ["go", "run", "airlineCrewRostering.go"]
	Command     []string `yaml:"command"`
	WorkDir     string   `yaml:"work_dir"`
	Dataset     string   `yaml:"dataset"`
	StartDate   string   `yaml:"start_date"` // YYYY-M-D
	EndDate     string   `yaml:"end_date"`
	Generations int      `yaml:"generations"`
	// ArtifactDir is where the optimizer drops --results files
	ArtifactDir string `yaml:"artifact_dir"`
	Timeout     string `yaml:"timeout"` // e.g. "2h"
	Retries     int    `yaml:"retries"`
	Backoff     string `yaml:"backoff"`      // constant or exponential
	BackoffBase string `yaml:"backoff_base"` // e.g. "10s"
	Workers     int    `yaml:"workers"`
	// Ledger is the SQLite file recording invocation outcomes; empty disables it
	Ledger string `yaml:"ledger"`
}

// FamilyConfig holds the per-family sweep and repeat settings
type FamilyConfig struct {
	Population int `yaml:"population"`
	// Sweep dimensions, outer to inner
	Sweep []Dimension `yaml:"sweep"`
	// Repeat is the fixed configuration used by multi-seed repetitions
	Repeat map[string]float64 `yaml:"repeat"`
}

// Dimension is either a discrete value set or a continuous scan
type Dimension struct {
	Name     string    `yaml:"name"`
	Values   []float64 `yaml:"values,omitempty"`
	Start    *float64  `yaml:"start,omitempty"`
	Stop     *float64  `yaml:"stop,omitempty"`
	Step     float64   `yaml:"step,omitempty"`
	Decimals *int      `yaml:"decimals,omitempty"`
}

// IsScan reports whether the dimension is a continuous scan
func (d Dimension) IsScan() bool {
	return d.Start != nil || d.Stop != nil || d.Step != 0
}

// Collect configures result collection
type Collect struct {
	BaseDir   string `yaml:"base_dir"`
	ReportDir string `yaml:"report_dir"`
	// SortRows orders report rows by the configuration parsed from the
	// artifact name instead of directory listing order
	SortRows bool     `yaml:"sort_rows"`
	Seeds    []string `yaml:"seeds"`
	// SeedsFile lists additional seeds, one per line
	SeedsFile string `yaml:"seeds_file"`
}

// GetTimeout parses the per-invocation timeout
func (o *Optimizer) GetTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", o.Timeout, err)
	}
	return d, nil
}

// GetBackoffBase parses the retry backoff base delay
func (o *Optimizer) GetBackoffBase() (time.Duration, error) {
	d, err := time.ParseDuration(o.BackoffBase)
	if err != nil {
		return 0, fmt.Errorf("invalid backoff_base %q: %w", o.BackoffBase, err)
	}
	return d, nil
}
