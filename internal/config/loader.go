package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/internal/seed"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// LoadConfig loads and parses a configuration file. Seeds listed in
// collect.seeds_file are appended to collect.seeds.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Collect.SeedsFile != "" {
		seeds, err := LoadSeedsFile(cfg.Collect.SeedsFile)
		if err != nil {
			return nil, err
		}
		cfg.Collect.Seeds = append(cfg.Collect.Seeds, seeds...)
		if err := validateSeeds(cfg.Collect.Seeds); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// LoadSeedsFile reads one seed per line. Blank lines and lines starting
// with '#' are ignored.
func LoadSeedsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds file %s: %w", path, err)
	}
	var seeds []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan seeds file %s: %w", path, err)
	}
	return seeds, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROSTERLAB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("ROSTERLAB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Optimizer.Workers = n
		}
	}
	if v := os.Getenv("ROSTERLAB_WORK_DIR"); v != "" {
		cfg.Optimizer.WorkDir = v
	}
	if v := os.Getenv("ROSTERLAB_LEDGER"); v != "" {
		cfg.Optimizer.Ledger = v
	}
	if v := os.Getenv("ROSTERLAB_BASE_DIR"); v != "" {
		cfg.Collect.BaseDir = v
	}
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", cfg.LogFormat)
	}

	if err := validateOptimizer(&cfg.Optimizer); err != nil {
		return fmt.Errorf("optimizer validation failed: %w", err)
	}

	for canonical, keys := range familyKeys(cfg.Families) {
		if len(keys) > 1 {
			return fmt.Errorf("families: keys %s all name %s", strings.Join(keys, ", "), canonical)
		}
	}
	for name, fc := range cfg.Families {
		f, err := family.Lookup(name)
		if err != nil {
			return fmt.Errorf("families: %w", err)
		}
		if err := validateFamily(f, fc); err != nil {
			return fmt.Errorf("family %s: %w", f.Name, err)
		}
	}

	if err := validateSeeds(cfg.Collect.Seeds); err != nil {
		return err
	}

	return nil
}

func validateOptimizer(o *Optimizer) error {
	if len(o.Command) == 0 || strings.TrimSpace(o.Command[0]) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if o.Dataset == "" {
		return fmt.Errorf("dataset cannot be empty")
	}
	start, err := utils.ParseScheduleDate(o.StartDate)
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	end, err := utils.ParseScheduleDate(o.EndDate)
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", o.EndDate, o.StartDate)
	}
	if o.Generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", o.Generations)
	}
	timeout, err := o.GetTimeout()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if o.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", o.Retries)
	}
	if o.Backoff != "constant" && o.Backoff != "exponential" {
		return fmt.Errorf("invalid backoff type: %s (must be constant or exponential)", o.Backoff)
	}
	if _, err := o.GetBackoffBase(); err != nil {
		return err
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	return nil
}

func validateFamily(f *family.Family, fc *FamilyConfig) error {
	if fc == nil {
		return fmt.Errorf("settings cannot be empty")
	}
	if fc.Population <= 0 {
		return fmt.Errorf("population must be positive, got %d", fc.Population)
	}

	seen := make(map[string]bool)
	for i, d := range fc.Sweep {
		if !f.HasParam(d.Name) {
			return fmt.Errorf("sweep dimension %d: unknown parameter %q", i, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("sweep dimension %d: duplicate parameter %q", i, d.Name)
		}
		seen[d.Name] = true
		if err := validateDimension(d); err != nil {
			return fmt.Errorf("sweep dimension %s: %w", d.Name, err)
		}
	}
	for _, p := range f.Params {
		if !seen[p] {
			return fmt.Errorf("sweep is missing parameter %s", p)
		}
		if _, ok := fc.Repeat[p]; !ok {
			return fmt.Errorf("repeat is missing parameter %s", p)
		}
	}
	for name := range fc.Repeat {
		if !f.HasParam(name) {
			return fmt.Errorf("repeat: unknown parameter %q", name)
		}
	}
	return nil
}

func validateDimension(d Dimension) error {
	if d.IsScan() {
		if len(d.Values) > 0 {
			return fmt.Errorf("cannot set both values and start/stop/step")
		}
		if d.Start == nil || d.Stop == nil {
			return fmt.Errorf("scan requires start and stop")
		}
		if d.Step <= 0 {
			return fmt.Errorf("step must be positive, got %v", d.Step)
		}
		if *d.Stop < *d.Start {
			return fmt.Errorf("stop %v is before start %v", *d.Stop, *d.Start)
		}
		if d.Decimals != nil && (*d.Decimals < 0 || *d.Decimals > 6) {
			return fmt.Errorf("decimals must be between 0 and 6, got %d", *d.Decimals)
		}
		return nil
	}
	if len(d.Values) == 0 {
		return fmt.Errorf("values cannot be empty")
	}
	return nil
}

func validateSeeds(seeds []string) error {
	seen := make(map[string]bool)
	for _, s := range seeds {
		if _, err := seed.Validate(s); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		if seen[s] {
			return fmt.Errorf("collect: duplicate seed %s", s)
		}
		seen[s] = true
	}
	return nil
}

// ValidateCollect checks the settings the collect command needs
func (c *Config) ValidateCollect() error {
	if c.Collect.BaseDir == "" {
		return fmt.Errorf("collect.base_dir must be set")
	}
	if len(c.Collect.Seeds) == 0 {
		return fmt.Errorf("collect.seeds must list at least one seed")
	}
	return nil
}
