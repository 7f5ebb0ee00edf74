// Package config loads the console configuration from
// ~/.config/cuedeck/config.yaml, falling back to defaults when the
// file is absent.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KeysConfig holds the global control bindings as normalized codes.
type KeysConfig struct {
	PauseAll      string  `yaml:"pause_all"`
	VolumeDownAll string  `yaml:"volume_down_all"`
	VolumeUpAll   string  `yaml:"volume_up_all"`
	FocusedUp     string  `yaml:"focused_up"`
	FocusedDown   string  `yaml:"focused_down"`
	Step          float64 `yaml:"step"`
}

// DMXConfig selects the lighting output.
type DMXConfig struct {
	Port       string `yaml:"port,omitempty"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// AudioConfig controls the playback sink.
type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MIDIConfig enables the controller trigger source. Notes maps MIDI
// note numbers to trigger codes; empty means the built-in pad layout.
type MIDIConfig struct {
	Enabled bool           `yaml:"enabled"`
	Notes   map[int]string `yaml:"notes,omitempty"`
}

// Config is the main configuration structure.
type Config struct {
	Keys  KeysConfig  `yaml:"keys"`
	DMX   DMXConfig   `yaml:"dmx"`
	Audio AudioConfig `yaml:"audio"`
	MIDI  MIDIConfig  `yaml:"midi"`
	Debug bool        `yaml:"debug"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Keys: KeysConfig{
			PauseAll:      "Space",
			VolumeDownAll: "Minus",
			VolumeUpAll:   "Equal",
			FocusedUp:     "ArrowUp",
			FocusedDown:   "ArrowDown",
			Step:          0.05,
		},
		DMX: DMXConfig{
			DebounceMS: 200,
		},
		Audio: AudioConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cuedeck"), nil
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their default values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
