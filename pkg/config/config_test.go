package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: 19\nmidi:\n  reference_hz: 432\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 19, cfg.GridSize)
	assert.Equal(t, 432.0, cfg.MIDI.ReferenceHz)
	assert.Equal(t, 2.0, cfg.MIDI.BendRange)
	assert.Equal(t, uint32(480), cfg.MIDI.NoteTicks)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero grid", "grid_size: 0\n"},
		{"negative reference", "midi:\n  reference_hz: -1\n"},
		{"zero bend range", "midi:\n  bend_range: 0\n"},
		{"bad level", "log_level: loud\n"},
		{"bad yaml", "grid_size: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.GridSize = 31
	cfg.ExportDir = "/tmp/exports"
	cfg.LogLevel = "debug"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(p))
	assert.Equal(t, "xenapprox", filepath.Base(filepath.Dir(p)))
}

func TestMIDIRendererUsesMIDISection(t *testing.T) {
	cfg := Default()
	cfg.MIDI.ReferenceHz = 220

	data, err := cfg.MIDIRenderer().Render([]float64{0})
	require.NoError(t, err)

	// note-on, channel 0, key 57 (A3), velocity 100
	assert.True(t, bytes.Contains(data, []byte{0x90, 57, 100}))

	data, err = Default().MIDIRenderer().Render([]float64{0})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte{0x90, 69, 100}))
}
