package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Len(t, cfg.Features, 8)
	assert.Equal(t, []string{"class"}, cfg.Labels)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terrafeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
patch_size: 64
features: [red, nir]
labels: [landcover]
n_classes: 4
training_dir: /data/train
batch_size: 8
training: true
seed: 42
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.PatchSize)
	assert.Equal(t, []string{"red", "nir"}, cfg.Features)
	assert.Equal(t, []string{"landcover"}, cfg.Labels)
	assert.Equal(t, 4, cfg.NClasses)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.True(t, cfg.Training)
	assert.Equal(t, int64(42), cfg.Seed)

	// Unset keys keep their defaults.
	assert.Equal(t, 512, cfg.BufferSize)
	assert.True(t, cfg.TransformData)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "batch_size: 8\n")
	t.Setenv("TERRAFEED_BATCH_SIZE", "16")
	t.Setenv("TERRAFEED_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
features: []
batch_size: 0
`)

	_, err := Load(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "features")
	assert.Contains(t, fields, "batch_size")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no labels", func(c *Config) { c.Labels = nil }, "labels"},
		{"bad class count", func(c *Config) { c.NClasses = 0 }, "n_classes"},
		{"bad patch size", func(c *Config) { c.PatchSize = -1 }, "patch_size"},
		{"bad buffer", func(c *Config) { c.BufferSize = 0 }, "buffer_size"},
		{"bad workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"derived with serving", func(c *Config) { c.DerivedFeatures = true; c.AIPlatform = true }, "derived_features"},
		{"derived band count", func(c *Config) { c.DerivedFeatures = true; c.Features = []string{"red"} }, "features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected an error on %s, got %v", tt.field, errs)
		})
	}
}

func TestPatchSizeNotRequiredForDNN(t *testing.T) {
	cfg := Default()
	cfg.DNN = true
	cfg.PatchSize = 0
	assert.Empty(t, cfg.Validate())
}

func TestSplitPatterns(t *testing.T) {
	cfg := Default()
	cfg.TrainingDir = "/data/train"
	cfg.TestingDir = "/data/test"
	cfg.ValidationDir = "/data/val"

	assert.Equal(t, filepath.Join("/data/train", "*"), cfg.TrainingPattern())
	assert.Equal(t, filepath.Join("/data/test", "*"), cfg.TestingPattern())
	assert.Equal(t, filepath.Join("/data/val", "*"), cfg.ValidationPattern())
}
