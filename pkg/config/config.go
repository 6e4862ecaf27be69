// Package config provides configuration loading and management for
// volalign. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Alignment parameters
	Alignment struct {
		// AxisOrder is the target axis permutation: the major axis is
		// rotated onto the first label, the minor axis onto the last
		AxisOrder string `yaml:"axisOrder"`

		// Reshape controls whether the output bounding box may grow to
		// hold all rotated content
		Reshape bool `yaml:"reshape"`
	} `yaml:"alignment"`

	// Input/output parameters
	IO struct {
		// InputDir is a comma-separated list of directories, each
		// containing a 2D slice stack; the first stack drives the
		// angle computation
		InputDir string `yaml:"inputDir"`

		// OutputDir is the directory where aligned stacks are written
		OutputDir string `yaml:"outputDir"`

		// SliceFormat is the on-disk slice format: tiff, png or jpeg
		SliceFormat string `yaml:"sliceFormat"`
	} `yaml:"io"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default alignment parameters
	cfg.Alignment.AxisOrder = "zyx"
	cfg.Alignment.Reshape = true

	// Set default I/O parameters
	cfg.IO.OutputDir = "aligned"
	cfg.IO.SliceFormat = "tiff"

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
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

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
