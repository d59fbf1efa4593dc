// Package config provides configuration loading and management for
// mriresample. It handles loading configuration from YAML files and
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
	// Resampling parameters
	Resampling struct {
		// ObliquityThreshold is the skip-gate threshold in degrees.
		// Inputs whose obliquity norm is below the threshold are
		// returned unchanged. A nil value disables the gate so
		// resampling always proceeds.
		ObliquityThreshold *float64 `yaml:"obliquityThreshold"`

		// OutputSuffix is appended to output filename stems
		OutputSuffix string `yaml:"outputSuffix"`
	} `yaml:"resampling"`

	// Output parameters
	Output struct {
		// Dir receives resampled files; empty keeps outputs next to
		// their inputs
		Dir string `yaml:"dir"`

		// PreviewSlices enables saving orthogonal slice previews of
		// each resampled magnitude volume for quality control
		PreviewSlices bool `yaml:"previewSlices"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default resampling parameters
	threshold := 10.0
	cfg.Resampling.ObliquityThreshold = &threshold
	cfg.Resampling.OutputSuffix = "_resampled"

	// Set default output parameters
	cfg.Output.Dir = ""
	cfg.Output.PreviewSlices = false
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
