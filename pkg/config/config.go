// Package config provides configuration loading and management for blindiqa.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"blindiqa/internal/logger"
	"blindiqa/pkg/colorspace"
	"blindiqa/pkg/features"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// NIQE parameters
	NIQE struct {
		// BlockSizeH and BlockSizeW are the block size in pixels at full resolution
		BlockSizeH int `yaml:"blockSizeH"`
		BlockSizeW int `yaml:"blockSizeW"`

		// CropBorder trims this many pixels from every edge before scoring
		CropBorder int `yaml:"cropBorder"`

		// TestYChannel scores the luminance of colour images instead of their first channel
		TestYChannel bool `yaml:"testYChannel"`

		// ColorSpace is the luminance definition, yiq or ycbcr
		ColorSpace string `yaml:"colorSpace"`
	} `yaml:"niqe"`

	// IL-NIQE parameters
	ILNIQE struct {
		BlockSizeH int `yaml:"blockSizeH"`
		BlockSizeW int `yaml:"blockSizeW"`
		CropBorder int `yaml:"cropBorder"`

		// Resize rescales the input to ResizeWidth x ResizeWidth before feature extraction
		Resize      bool `yaml:"resize"`
		ResizeWidth int  `yaml:"resizeWidth"`

		// ScaleConcat joins the two scales along "features" or "blocks"
		ScaleConcat string `yaml:"scaleConcat"`

		// WeibullMaxIter and WeibullTol bound the Weibull shape iteration
		WeibullMaxIter int     `yaml:"weibullMaxIter"`
		WeibullTol     float64 `yaml:"weibullTol"`
	} `yaml:"ilniqe"`

	// Processing parameters
	Processing struct {
		// Workers is the number of images scored concurrently
		Workers int `yaml:"workers"`

		// DegenerateBlocks is "fail" to reject images with featureless blocks or "skip" to
		// score them from the remaining blocks
		DegenerateBlocks string `yaml:"degenerateBlocks"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// LogFormat is console or json
		LogFormat string `yaml:"logFormat"`

		// MetricsTextfile, when set, receives Prometheus metrics in text format after a run
		MetricsTextfile string `yaml:"metricsTextfile"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.NIQE.BlockSizeH = 96
	cfg.NIQE.BlockSizeW = 96
	cfg.NIQE.CropBorder = 0
	cfg.NIQE.TestYChannel = true
	cfg.NIQE.ColorSpace = "yiq"

	cfg.ILNIQE.BlockSizeH = 84
	cfg.ILNIQE.BlockSizeW = 84
	cfg.ILNIQE.CropBorder = 0
	cfg.ILNIQE.Resize = true
	cfg.ILNIQE.ResizeWidth = 524
	cfg.ILNIQE.ScaleConcat = "features"
	cfg.ILNIQE.WeibullMaxIter = 50
	cfg.ILNIQE.WeibullTol = 1e-2

	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.DegenerateBlocks = "fail"

	cfg.Output.Verbose = false
	cfg.Output.LogFormat = "console"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks value ranges and the spelling of every enumerated setting.
func (c *Config) Validate() error {
	if c.NIQE.BlockSizeH <= 0 || c.NIQE.BlockSizeW <= 0 {
		return fmt.Errorf("niqe block size must be positive, got %dx%d", c.NIQE.BlockSizeW, c.NIQE.BlockSizeH)
	}
	if c.ILNIQE.BlockSizeH <= 0 || c.ILNIQE.BlockSizeW <= 0 {
		return fmt.Errorf("ilniqe block size must be positive, got %dx%d", c.ILNIQE.BlockSizeW, c.ILNIQE.BlockSizeH)
	}
	if c.NIQE.CropBorder < 0 || c.ILNIQE.CropBorder < 0 {
		return fmt.Errorf("crop border must not be negative")
	}
	if c.ILNIQE.Resize && c.ILNIQE.ResizeWidth <= 0 {
		return fmt.Errorf("ilniqe resize width must be positive, got %d", c.ILNIQE.ResizeWidth)
	}
	if c.ILNIQE.WeibullMaxIter <= 0 || c.ILNIQE.WeibullTol <= 0 {
		return fmt.Errorf("weibull iteration limits must be positive")
	}
	if c.Processing.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Processing.Workers)
	}

	if _, err := colorspace.ParseSpace(c.NIQE.ColorSpace); err != nil {
		return err
	}
	if _, err := features.ParseScaleConcat(c.ILNIQE.ScaleConcat); err != nil {
		return err
	}
	if _, err := features.ParseDegeneratePolicy(c.Processing.DegenerateBlocks); err != nil {
		return err
	}
	if _, err := logger.ParseFormat(c.Output.LogFormat); err != nil {
		return err
	}
	return nil
}
