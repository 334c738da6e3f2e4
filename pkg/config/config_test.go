package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaults sane out-of-the-box limits
func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
	if cfg.Simulation.MaxSteps != 1000 || cfg.Simulation.MaxReachabilityNodes != 10000 {
		t.Errorf("Simulation = %+v", cfg.Simulation)
	}
	if cfg.Clipboard.PasteOffsetX != 30 || cfg.Clipboard.PasteOffsetY != 30 {
		t.Errorf("Clipboard = %+v", cfg.Clipboard)
	}
}

// TestParseOverridesDefaults listed fields override, absent fields keep
func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
simulation:
  max_steps: 50
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
	if cfg.Simulation.MaxSteps != 50 {
		t.Errorf("MaxSteps = %d", cfg.Simulation.MaxSteps)
	}
	if cfg.Simulation.MaxReachabilityNodes != 10000 {
		t.Errorf("MaxReachabilityNodes = %d, want the default", cfg.Simulation.MaxReachabilityNodes)
	}
}

// TestParseRejectsBadValues validation failures surface as errors
func TestParseRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log_level: loud"},
		{"zero step budget", "simulation:\n  max_steps: 0"},
		{"negative node cap", "simulation:\n  max_reachability_nodes: -5"},
		{"not yaml", "log_level: [unterminated"},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.yaml)); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

// TestLoad reads a file from disk
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
