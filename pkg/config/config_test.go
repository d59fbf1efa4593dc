package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Resampling.ObliquityThreshold == nil || *cfg.Resampling.ObliquityThreshold != 10.0 {
		t.Errorf("Default obliquity threshold = %v, want 10.0", cfg.Resampling.ObliquityThreshold)
	}
	if cfg.Resampling.OutputSuffix != "_resampled" {
		t.Errorf("Default output suffix = %q, want \"_resampled\"", cfg.Resampling.OutputSuffix)
	}
	if cfg.Output.PreviewSlices {
		t.Error("Preview slices should be disabled by default")
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/mriresample.yaml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Resampling.ObliquityThreshold == nil || *cfg.Resampling.ObliquityThreshold != 10.0 {
		t.Error("Missing config file should yield default values")
	}
}

// TestLoadConfigOverrides verifies YAML values override the defaults,
// including disabling the obliquity gate with an explicit null
func TestLoadConfigOverrides(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "mriresample.yaml")
	yaml := `resampling:
  obliquityThreshold: 5.5
  outputSuffix: "_axial"
output:
  previewSlices: true
  verbose: false
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Resampling.ObliquityThreshold == nil || *cfg.Resampling.ObliquityThreshold != 5.5 {
		t.Errorf("Obliquity threshold = %v, want 5.5", cfg.Resampling.ObliquityThreshold)
	}
	if cfg.Resampling.OutputSuffix != "_axial" {
		t.Errorf("Output suffix = %q, want \"_axial\"", cfg.Resampling.OutputSuffix)
	}
	if !cfg.Output.PreviewSlices {
		t.Error("Preview slices should be enabled")
	}

	// An explicit null disables the gate entirely.
	disabled := `resampling:
  obliquityThreshold: null
`
	if err := os.WriteFile(path, []byte(disabled), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Resampling.ObliquityThreshold != nil {
		t.Errorf("Obliquity threshold = %v, want nil (gate disabled)", *cfg.Resampling.ObliquityThreshold)
	}
}

// TestSaveConfigRoundTrip verifies that a saved configuration loads back
// with the same values
func TestSaveConfigRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := DefaultConfig()
	threshold := 7.25
	cfg.Resampling.ObliquityThreshold = &threshold
	cfg.Output.Dir = "/data/out"

	path := filepath.Join(dir, "sub", "mriresample.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Resampling.ObliquityThreshold == nil || *loaded.Resampling.ObliquityThreshold != 7.25 {
		t.Errorf("Obliquity threshold = %v, want 7.25", loaded.Resampling.ObliquityThreshold)
	}
	if loaded.Output.Dir != "/data/out" {
		t.Errorf("Output dir = %q, want \"/data/out\"", loaded.Output.Dir)
	}
}
