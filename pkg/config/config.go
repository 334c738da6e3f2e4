// Package config loads the engine's runtime limits and defaults from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration file root.
type Config struct {
	// LogLevel sets the minimum level for the JSON logger.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// MetricsListen is the address the Prometheus endpoint binds to;
	// empty disables it.
	MetricsListen string `yaml:"metrics_listen"`

	Simulation SimulationConfig `yaml:"simulation"`
	Clipboard  ClipboardConfig  `yaml:"clipboard"`
}

// SimulationConfig bounds the simulator and the reachability explorer.
type SimulationConfig struct {
	MaxSteps             int `yaml:"max_steps" validate:"gt=0"`
	MaxReachabilityNodes int `yaml:"max_reachability_nodes" validate:"gt=0"`
}

// ClipboardConfig sets the offset applied to pasted nodes.
type ClipboardConfig struct {
	PasteOffsetX float64 `yaml:"paste_offset_x"`
	PasteOffsetY float64 `yaml:"paste_offset_y"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Simulation: SimulationConfig{
			MaxSteps:             1000,
			MaxReachabilityNodes: 10000,
		},
		Clipboard: ClipboardConfig{
			PasteOffsetX: 30,
			PasteOffsetY: 30,
		},
	}
}

// Load reads and validates a YAML configuration file. Fields absent from
// the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
