// Package config loads and saves the xenapprox user configuration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/xenapprox/pkg/tuning"
	"gopkg.in/yaml.v3"
)

// MIDIConfig holds MIDI preview settings
type MIDIConfig struct {
	ReferenceHz float64 `yaml:"reference_hz"`
	BendRange   float64 `yaml:"bend_range"`
	NoteTicks   uint32  `yaml:"note_ticks"`
}

// Config is the main configuration structure
type Config struct {
	GridSize  int        `yaml:"grid_size"`
	ExportDir string     `yaml:"export_dir,omitempty"`
	LogLevel  string     `yaml:"log_level"`
	MIDI      MIDIConfig `yaml:"midi"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		GridSize: 12,
		LogLevel: "info",
		MIDI: MIDIConfig{
			ReferenceHz: 440,
			BendRange:   2,
			NoteTicks:   480,
		},
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "xenapprox"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at path. A missing file yields the defaults; fields
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %d", c.GridSize)
	}
	if c.MIDI.ReferenceHz <= 0 {
		return fmt.Errorf("midi.reference_hz must be positive, got %g", c.MIDI.ReferenceHz)
	}
	if c.MIDI.BendRange <= 0 {
		return fmt.Errorf("midi.bend_range must be positive, got %g", c.MIDI.BendRange)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// MIDIRenderer returns a renderer using the midi section
func (c *Config) MIDIRenderer() *tuning.MIDIRenderer {
	r := tuning.NewMIDIRenderer()
	r.SetReference(c.MIDI.ReferenceHz)
	r.SetBendRange(c.MIDI.BendRange)
	r.SetNoteTicks(c.MIDI.NoteTicks)
	return r
}

// ParseLevel maps a log_level string to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}
