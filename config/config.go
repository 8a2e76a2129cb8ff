package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config describes one dataset: where the record files live, how a sample is
// laid out and how the pipelines should assemble batches from it.
type Config struct {
	// PatchSize is the side length in pixels of every square patch. Ignored
	// by pixel-wise (DNN) datasets.
	PatchSize int `mapstructure:"patch_size"`
	// Features are the input band names, in the channel order models expect.
	Features []string `mapstructure:"features"`
	// Labels are the response band names. The first one is the label that
	// gets encoded; any others ride along as extra input channels.
	Labels []string `mapstructure:"labels"`
	// NClasses is the number of classes label values are one-hot encoded to.
	NClasses int `mapstructure:"n_classes"`

	// TrainingDir, TestingDir and ValidationDir hold the record files of the
	// three dataset splits.
	TrainingDir   string `mapstructure:"training_dir"`
	TestingDir    string `mapstructure:"testing_dir"`
	ValidationDir string `mapstructure:"validation_dir"`

	// BatchSize is the number of samples per emitted batch. A final short
	// batch is kept, not dropped.
	BatchSize int `mapstructure:"batch_size"`
	// BufferSize is the shuffle buffer capacity used by training pipelines.
	BufferSize int `mapstructure:"buffer_size"`
	// Workers is the number of record files read concurrently.
	Workers int `mapstructure:"workers"`
	// Seed feeds shuffling and augmentation. 0 draws a seed from the clock.
	Seed int64 `mapstructure:"seed"`

	// Training enables shuffling and, together with TransformData, random
	// augmentation.
	Training bool `mapstructure:"training"`
	// TransformData enables random flips and rotations on training batches.
	TransformData bool `mapstructure:"transform_data"`
	// DerivedFeatures widens raw band composites with spectral indices.
	// Requires the eight-band before/during layout.
	DerivedFeatures bool `mapstructure:"derived_features"`
	// DNN switches to pixel-wise samples for dense models.
	DNN bool `mapstructure:"dnn"`
	// AIPlatform keeps features as named tensors for serving signatures
	// instead of stacking them into one composite.
	AIPlatform bool `mapstructure:"ai_platform"`

	// LogLevel is the slog level: "debug", "info", "warn" or "error".
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		PatchSize: 256,
		Features: []string{
			"red_before", "green_before", "blue_before", "nir_before",
			"red_during", "green_during", "blue_during", "nir_during",
		},
		Labels:          []string{"class"},
		NClasses:        2,
		BatchSize:       32,
		BufferSize:      512,
		Workers:         runtime.NumCPU(),
		Seed:            0,
		Training:        false,
		TransformData:   true,
		DerivedFeatures: false,
		DNN:             false,
		AIPlatform:      false,
		LogLevel:        "info",
	}
}

// SetDefaults registers default values with v so partial config files and
// environment overrides resolve against them.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("patch_size", defaults.PatchSize)
	v.SetDefault("features", defaults.Features)
	v.SetDefault("labels", defaults.Labels)
	v.SetDefault("n_classes", defaults.NClasses)

	v.SetDefault("training_dir", defaults.TrainingDir)
	v.SetDefault("testing_dir", defaults.TestingDir)
	v.SetDefault("validation_dir", defaults.ValidationDir)

	v.SetDefault("batch_size", defaults.BatchSize)
	v.SetDefault("buffer_size", defaults.BufferSize)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("seed", defaults.Seed)

	v.SetDefault("training", defaults.Training)
	v.SetDefault("transform_data", defaults.TransformData)
	v.SetDefault("derived_features", defaults.DerivedFeatures)
	v.SetDefault("dnn", defaults.DNN)
	v.SetDefault("ai_platform", defaults.AIPlatform)

	v.SetDefault("log_level", defaults.LogLevel)
}

// Load reads the config file at path, applies TERRAFEED_* environment
// overrides and validates the result. An empty path searches for
// terrafeed.yaml in the working directory and falls back to defaults when
// none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("TERRAFEED")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("terrafeed")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// TrainingPattern returns the glob matching every record file of the
// training split.
func (c *Config) TrainingPattern() string { return filepath.Join(c.TrainingDir, "*") }

// TestingPattern returns the glob matching every record file of the testing
// split.
func (c *Config) TestingPattern() string { return filepath.Join(c.TestingDir, "*") }

// ValidationPattern returns the glob matching every record file of the
// validation split.
func (c *Config) ValidationPattern() string { return filepath.Join(c.ValidationDir, "*") }
