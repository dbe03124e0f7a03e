package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigYAMLDefaults(t *testing.T) {
	cfg, err := ParseConfigYAMLString("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "Pairings.csv", cfg.Optimizer.Dataset)
	assert.Equal(t, "2011-11-1", cfg.Optimizer.StartDate)
	assert.Equal(t, "2012-3-4", cfg.Optimizer.EndDate)
	assert.Equal(t, "output", cfg.Optimizer.ArtifactDir)
	assert.Equal(t, 1, cfg.Optimizer.Workers)
	assert.Equal(t, ".", cfg.Collect.ReportDir)
	assert.Len(t, cfg.Families, 2)
	assert.Equal(t, 45, cfg.Families["multiCSO"].Population)
}

func TestParseConfigYAMLFamilyAlias(t *testing.T) {
	cfg, err := ParseConfigYAMLString(`
families:
  cso:
    population: 30
`)
	require.NoError(t, err)
	require.Contains(t, cfg.Families, "multiCSO")
	assert.NotContains(t, cfg.Families, "cso")
	assert.Equal(t, 30, cfg.Families["multiCSO"].Population)
	// sweep and repeat fall back to the historical grid
	assert.Len(t, cfg.Families["multiCSO"].Sweep, 1)
}

func TestParseConfigYAMLEnvOverrides(t *testing.T) {
	t.Setenv("ROSTERLAB_LOG_LEVEL", "DEBUG")
	t.Setenv("ROSTERLAB_WORKERS", "4")
	t.Setenv("ROSTERLAB_BASE_DIR", "/data/runs")
	t.Setenv("ROSTERLAB_LEDGER", "/tmp/ledger.db")
	t.Setenv("ROSTERLAB_WORK_DIR", "/opt/optimizer")

	cfg, err := ParseConfigYAMLString("log_level: warn\n")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Optimizer.Workers)
	assert.Equal(t, "/data/runs", cfg.Collect.BaseDir)
	assert.Equal(t, "/tmp/ledger.db", cfg.Optimizer.Ledger)
	assert.Equal(t, "/opt/optimizer", cfg.Optimizer.WorkDir)
	assert.Equal(t, filepath.Join("/opt/optimizer", "output"), cfg.Optimizer.ArtifactDir)
}

func TestParseConfigYAMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "log_level: [", "failed to parse config yaml"},
		{"log level", "log_level: loud", "invalid log_level"},
		{"log format", "log_format: xml", "invalid log_format"},
		{"start date", "optimizer:\n  start_date: 2011-13-1", "start_date"},
		{"date order", "optimizer:\n  start_date: 2012-1-1\n  end_date: 2011-1-1", "before start_date"},
		{"generations", "optimizer:\n  generations: -1", "generations must be positive"},
		{"timeout", "optimizer:\n  timeout: soon", "invalid timeout"},
		{"retries", "optimizer:\n  retries: -2", "retries cannot be negative"},
		{"backoff", "optimizer:\n  backoff: linear", "invalid backoff type"},
		{"workers", "optimizer:\n  workers: -1", "workers must be at least 1"},
		{"unknown family", "families:\n  GA:\n    population: 10", "unknown family"},
		{
			"unknown param",
			"families:\n  AOA:\n    sweep:\n      - name: C9\n        values: [1]",
			"unknown parameter",
		},
		{
			"missing param",
			"families:\n  AOA:\n    sweep:\n      - name: C1\n        values: [1]",
			"sweep is missing parameter",
		},
		{
			"empty values",
			"families:\n  multiCSO:\n    sweep:\n      - name: FL",
			"values cannot be empty",
		},
		{
			"bad step",
			"families:\n  multiCSO:\n    sweep:\n      - name: FL\n        start: 0\n        stop: 1\n        step: -0.1",
			"step must be positive",
		},
		{
			"mixed dimension",
			"families:\n  multiCSO:\n    sweep:\n      - name: FL\n        values: [1]\n        start: 0\n        stop: 1\n        step: 0.5",
			"cannot set both",
		},
		{
			"alias collision",
			"families:\n  CSO:\n    population: 30\n  cso:\n    population: 40",
			"keys CSO, cso all name multiCSO",
		},
		{
			"alias beside selector",
			"families:\n  aoa:\n    population: 30\n  AOA:\n    population: 40",
			"keys AOA, aoa all name AOA",
		},
		{"seed digits", "collect:\n  seeds: [\"12a\"]", "not a decimal integer"},
		{"seed duplicate", "collect:\n  seeds: [12, 12]", "duplicate seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yaml)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollect(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.ValidateCollect(), "base_dir")

	cfg.Collect.BaseDir = "/data"
	assert.ErrorContains(t, cfg.ValidateCollect(), "seeds")

	cfg.Collect.Seeds = []string{"1"}
	assert.NoError(t, cfg.ValidateCollect())
}

func TestMarshalConfigYAMLRoundTrip(t *testing.T) {
	out, err := MarshalConfigYAML(Default())
	require.NoError(t, err)

	cfg, err := ParseConfigYAML(out)
	require.NoError(t, err)
	assert.Equal(t, Default().Optimizer, cfg.Optimizer)
}
