package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("../../config/rosterlab.yaml")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"go", "run", "airlineCrewRostering.go"}, cfg.Optimizer.Command)
	assert.Equal(t, 200, cfg.Optimizer.Generations)
	assert.Equal(t, filepath.Join("../airline-crew-rostering", "output"), cfg.Optimizer.ArtifactDir)
	assert.Equal(t, []string{"1234567", "1754321"}, cfg.Collect.Seeds)

	aoa := cfg.Families["AOA"]
	require.NotNil(t, aoa)
	assert.Equal(t, 40, aoa.Population)
	require.Len(t, aoa.Sweep, 4)
	assert.Equal(t, "C2", aoa.Sweep[0].Name)

	cso := cfg.Families["multiCSO"]
	require.NotNil(t, cso)
	require.Len(t, cso.Sweep, 1)
	assert.True(t, cso.Sweep[0].IsScan())
	assert.Equal(t, 1.0, cso.Repeat["FL"])
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadConfigSeedsFile(t *testing.T) {
	dir := t.TempDir()
	seedsPath := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(seedsPath, []byte("# catalog\n111\n\n  222  \n"), 0o644))

	cfgPath := filepath.Join(dir, "rosterlab.yaml")
	body := "collect:\n  base_dir: " + dir + "\n  seeds: [100]\n  seeds_file: " + seedsPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "111", "222"}, cfg.Collect.Seeds)
	assert.NoError(t, cfg.ValidateCollect())
}

func TestLoadConfigSeedsFileDuplicate(t *testing.T) {
	dir := t.TempDir()
	seedsPath := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(seedsPath, []byte("100\n"), 0o644))

	cfgPath := filepath.Join(dir, "rosterlab.yaml")
	body := "collect:\n  seeds: [100]\n  seeds_file: " + seedsPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	_, err := LoadConfig(cfgPath)
	assert.ErrorContains(t, err, "duplicate seed")
}

func TestLoadSeedsFileMissing(t *testing.T) {
	_, err := LoadSeedsFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to read seeds file")
}
