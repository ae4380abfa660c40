package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "cbm" {
		t.Errorf("expected model cbm, got %s", cfg.Model)
	}
	if cfg.Spinup.ReturnInterval <= 0 {
		t.Error("return interval should be positive")
	}
	if cfg.Spinup.MaxIterations <= 0 {
		t.Error("max iterations should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate_BadModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "ocean"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestValidate_BadBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "gpu"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")

	cfg := DefaultConfig()
	cfg.Model = "moss"
	cfg.Spinup.ReturnInterval = 90
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Model != "moss" {
		t.Errorf("expected model moss, got %s", loaded.Model)
	}
	if loaded.Spinup.ReturnInterval != 90 {
		t.Errorf("expected return interval 90, got %d", loaded.Spinup.ReturnInterval)
	}
	// defaults survive a partial file
	if loaded.Spinup.MaxIterations != DefaultMaxIterations {
		t.Errorf("expected max iterations %d, got %d", DefaultMaxIterations, loaded.Spinup.MaxIterations)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte("model: moss\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "moss" {
		t.Errorf("expected model moss, got %s", cfg.Model)
	}
	if cfg.Backend != "auto" {
		t.Errorf("expected default backend auto, got %s", cfg.Backend)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("cbm", "boreal")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Spinup.ReturnInterval != 125 {
		t.Errorf("expected return interval 125, got %d", cfg.Spinup.ReturnInterval)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("cbm", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "boreal"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("cbm")
	if len(presets) == 0 {
		t.Error("expected presets for cbm")
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}
