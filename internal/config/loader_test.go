package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dscurate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	d := DefaultConfig()
	assert.Equal(t, d.Dataset.Root, cfg.Dataset.Root)
	assert.Equal(t, d.Dataset.Splits, cfg.Dataset.Splits)
	assert.Equal(t, d.Quality, cfg.Quality)
	assert.Equal(t, d.Dedup, cfg.Dedup)
	assert.Equal(t, d.Train, cfg.Train)
	assert.Equal(t, d.Bench, cfg.Bench)
	assert.Empty(t, cfg.Labels.AllowedClasses)
}

func TestLoader_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
dataset:
  root: /srv/plates
  splits: [train, valid]
quality:
  min_blur_variance: 45.5
dedup:
  near_dup_hamming: 5
subsets:
  targets: [100, 200]
`)
	l := NewLoaderWith(viper.New())
	cfg, err := l.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/plates", cfg.Dataset.Root)
	assert.Equal(t, []string{"train", "valid"}, cfg.Dataset.Splits)
	assert.InDelta(t, 45.5, cfg.Quality.MinBlurVariance, 1e-9)
	assert.Equal(t, 5, cfg.Dedup.NearDupHamming)
	assert.Equal(t, []int{100, 200}, cfg.Subsets.Targets)
	// untouched keys keep defaults
	assert.Equal(t, 320, cfg.Quality.MinWidth)
	assert.Equal(t, path, l.GetConfigFileUsed())
}

func TestLoader_SearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dscurate.yaml"), []byte("train:\n  epochs: 7\n"), 0o600))
	t.Chdir(dir)

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Train.Epochs)
}

func TestLoader_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DSCURATE_QUALITY_MIN_WIDTH", "640")
	t.Setenv("DSCURATE_DATASET_ROOT", "/env/root")

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Quality.MinWidth)
	assert.Equal(t, "/env/root", cfg.Dataset.Root)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoaderWith(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoader_InvalidValues(t *testing.T) {
	path := writeConfig(t, "log_level: shouting\n")

	_, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	cfg, err := NewLoaderWith(viper.New()).LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, "shouting", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Train, cfg.Train)
	assert.Equal(t, DefaultConfig().Subsets.Targets, cfg.Subsets.Targets)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "dscurate"))
	assert.Equal(t, "/etc/dscurate", paths[len(paths)-1])
}
