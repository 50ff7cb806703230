package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "backdrop.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
fps: 30
chain:
  initial_blocks: 3
  max_blocks: 5
  speed_min: 10
  speed_max: 10
mesh:
  enabled: false
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FPS != 30 {
		t.Errorf("Expected fps 30, got %d", cfg.FPS)
	}
	if cfg.Chain.MaxBlocks != 5 || cfg.Chain.SpeedMin != 10 {
		t.Errorf("chain overrides not applied: %+v", cfg.Chain)
	}
	if cfg.Mesh.Enabled {
		t.Error("Expected mesh disabled")
	}
	// untouched sections keep their defaults
	if cfg.Particles != Default().Particles {
		t.Errorf("particles changed: %+v", cfg.Particles)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FPS != Default().FPS {
		t.Errorf("Expected default fps, got %d", cfg.FPS)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "fpz: 60\n"},
		{"negative fps", "fps: -1\n"},
		{"opacity above one", "particles:\n  opacity_max: 1.5\n"},
		{"wrong type", "chain:\n  max_blocks: lots\n"},
		{"max below initial", "chain:\n  initial_blocks: 4\n  max_blocks: 2\n"},
		{"inverted speed range", "chain:\n  speed_min: 2\n  speed_max: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BACKDROP_ICONS":      "/tmp/icons",
		"BACKDROP_FPS":        "24",
		"BACKDROP_SEED":       "42",
		"BACKDROP_SOUND":      "true",
		"BACKDROP_MAX_BLOCKS": "9",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Icons.Dir != "/tmp/icons" || cfg.FPS != 24 || cfg.Seed != 42 || !cfg.Sound.Enabled || cfg.Chain.MaxBlocks != 9 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == "BACKDROP_FPS" {
			return "fast"
		}
		return ""
	})
	if err == nil {
		t.Fatal("Expected an error for BACKDROP_FPS=fast")
	}
	if cfg.FPS != Default().FPS {
		t.Errorf("fps changed to %d", cfg.FPS)
	}
}
