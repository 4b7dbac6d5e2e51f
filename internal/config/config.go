// Package config loads the pipeline run configuration from a YAML
// file. Every knob defaults to the documented pipeline constants, so
// an absent or empty file runs the standard configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bgplens/bgplens/featsel"
	"github.com/bgplens/bgplens/modelsel"
	"github.com/bgplens/bgplens/pkg/errors"
	"github.com/bgplens/bgplens/svm"
)

// Config is the full pipeline run configuration.
type Config struct {
	// Input is the labeled feature CSV to train on.
	Input string `yaml:"input"`

	Output  Output  `yaml:"output"`
	Split   Split   `yaml:"split"`
	Select  Select  `yaml:"select"`
	Search  Search  `yaml:"search"`
	Explain Explain `yaml:"explain"`
	Render  Render  `yaml:"render"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Output locates the persisted artifacts.
type Output struct {
	// Model is the gob artifact path.
	Model string `yaml:"model"`

	// Features is the selected-feature CSV path.
	Features string `yaml:"features"`
}

// Split controls the train/test partition.
type Split struct {
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
}

// Select controls feature selection.
type Select struct {
	// TopK is the number of top-ranked features to keep.
	TopK int `yaml:"top_k"`
}

// Search controls the hyperparameter grid search.
type Search struct {
	Folds   int       `yaml:"folds"`
	Cs      []float64 `yaml:"c"`
	Gammas  []string  `yaml:"gamma"`
	Kernels []string  `yaml:"kernel"`
}

// Explain controls the optional attribution stage.
type Explain struct {
	Enabled bool `yaml:"enabled"`
}

// Render controls PNG output of curves and the boundary view.
type Render struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the standard pipeline configuration.
func Default() *Config {
	return &Config{
		Input: "data/features.csv",
		Output: Output{
			Model:    "out/model.gob",
			Features: "out/selected_features.csv",
		},
		Split: Split{
			TestSize: modelsel.DefaultTestSize,
			Seed:     42,
		},
		Select: Select{
			TopK: featsel.DefaultK,
		},
		Search: Search{
			Folds:   5,
			Cs:      []float64{0.1, 1, 10, 100},
			Gammas:  []string{"scale", "auto", "0.01", "0.1", "1"},
			Kernels: []string{svm.KernelRBF, svm.KernelLinear},
		},
		Explain:  Explain{Enabled: false},
		Render:   Render{Enabled: true, Dir: "out"},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, "cannot read config: "+err.Error())
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewDataLoadError(path, "invalid config: "+err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.NewValueError("config.Validate", "input path is required")
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return errors.NewValueError("config.Validate", "split.test_size must be in (0, 1)")
	}
	if c.Select.TopK < 1 {
		return errors.NewValueError("config.Validate", "select.top_k must be positive")
	}
	if c.Search.Folds < 2 {
		return errors.NewValueError("config.Validate", "search.folds must be at least 2")
	}
	if len(c.Search.Cs) == 0 || len(c.Search.Gammas) == 0 || len(c.Search.Kernels) == 0 {
		return errors.NewValueError("config.Validate", "search grid axes must be non-empty")
	}
	for _, kernel := range c.Search.Kernels {
		if kernel != svm.KernelRBF && kernel != svm.KernelLinear {
			return errors.NewValueError("config.Validate", "unknown kernel: "+kernel)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValueError("config.Validate", "log_level must be one of debug, info, warn, error, got "+c.LogLevel)
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	return nil
}

// Grid materializes the search grid from the configured axes.
func (c *Config) Grid() (modelsel.ParamGrid, error) {
	gammas := make([]svm.Gamma, 0, len(c.Search.Gammas))
	for _, raw := range c.Search.Gammas {
		gamma, err := svm.ParseGamma(raw)
		if err != nil {
			return modelsel.ParamGrid{}, err
		}
		gammas = append(gammas, gamma)
	}
	return modelsel.ParamGrid{
		Cs:      c.Search.Cs,
		Gammas:  gammas,
		Kernels: c.Search.Kernels,
	}, nil
}
