package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Keys.PauseAll != "Space" {
		t.Errorf("PauseAll = %q, want Space", cfg.Keys.PauseAll)
	}
	if cfg.Keys.Step != 0.05 {
		t.Errorf("Step = %v, want 0.05", cfg.Keys.Step)
	}
	if cfg.DMX.DebounceMS != 200 {
		t.Errorf("DebounceMS = %d, want 200", cfg.DMX.DebounceMS)
	}
	if !cfg.Audio.Enabled {
		t.Error("Audio.Enabled = false, want true by default")
	}
	if cfg.MIDI.Enabled {
		t.Error("MIDI.Enabled = true, want false by default")
	}
	if cfg.Debug {
		t.Error("Debug = true, want false by default")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	raw := `
dmx:
  port: /dev/ttyUSB0
midi:
  enabled: true
  notes:
    36: Digit1
    37: Digit2
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DMX.Port != "/dev/ttyUSB0" {
		t.Errorf("Port = %q, want /dev/ttyUSB0", cfg.DMX.Port)
	}
	if !cfg.MIDI.Enabled {
		t.Error("MIDI.Enabled = false, want true from file")
	}
	if cfg.MIDI.Notes[36] != "Digit1" || cfg.MIDI.Notes[37] != "Digit2" {
		t.Errorf("Notes = %v, want file mapping", cfg.MIDI.Notes)
	}
	// Untouched sections keep their defaults.
	if cfg.Keys.VolumeUpAll != "Equal" {
		t.Errorf("VolumeUpAll = %q, want default Equal", cfg.Keys.VolumeUpAll)
	}
	if cfg.DMX.DebounceMS != 200 {
		t.Errorf("DebounceMS = %d, want default 200", cfg.DMX.DebounceMS)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("keys: [not: a: mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFrom(path); err == nil {
		t.Error("loadFrom accepted malformed YAML")
	}
}
