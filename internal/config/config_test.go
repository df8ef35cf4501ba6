package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Temperature != 300 {
		t.Errorf("expected temperature 300, got %v", cfg.Temperature)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Mode != "analytic" {
		t.Errorf("expected analytic mode, got %q", cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero temperature", func(c *Config) { c.Temperature = 0 }},
		{"negative pressure", func(c *Config) { c.Pressure = -1 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero copies", func(c *Config) { c.Copies = 0 }},
		{"negative frameskip", func(c *Config) { c.FrameSkip = -1 }},
		{"bad mode", func(c *Config) { c.Mode = "quantum" }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Temperature = 77
	cfg.Copies = 3
	cfg.Mode = "numerical"
	cfg.Minimize = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("temperature: 77\ncopies: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Temperature != 77 || cfg.Copies != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Pressure != DefaultPressure || cfg.Mode != DefaultMode {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("quick")
	if cfg == nil {
		t.Fatal("expected quick preset")
	}
	if cfg.Copies != 10 {
		t.Errorf("expected 10 copies, got %d", cfg.Copies)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}

	// Mutating a returned preset must not affect the table.
	cfg.Copies = 999
	if Presets["quick"].Copies == 999 {
		t.Error("preset table mutated through returned copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestAllPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
