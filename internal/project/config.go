// Package project persists application configuration, offcut inventory and
// nesting projects.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/tubenest/internal/model"
)

// StockPreset is a named tube stock. Zero Kerf or Price keep the current value.
type StockPreset struct {
	Length float64 `json:"length" yaml:"length"`
	Kerf   float64 `json:"kerf,omitempty" yaml:"kerf,omitempty"`
	Price  float64 `json:"price,omitempty" yaml:"price,omitempty"`
}

// Config is the application configuration file.
type Config struct {
	Settings model.Settings         `json:"settings" yaml:"settings"`
	Stocks   map[string]StockPreset `json:"stocks,omitempty" yaml:"stocks,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Settings: model.DefaultSettings(),
		Stocks:   map[string]StockPreset{},
	}
}

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.tubenest/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".tubenest")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadConfig reads the config at path. A missing file yields DefaultConfig;
// keys absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Stocks == nil {
		cfg.Stocks = map[string]StockPreset{}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Settings.Capacity <= 0 {
		return &model.ValidationError{Field: "capacity", Value: c.Settings.Capacity, Reason: "must be positive"}
	}
	for name, s := range c.Stocks {
		if s.Length <= 0 {
			return &model.ValidationError{Field: "stock " + name + " length", Value: s.Length, Reason: "must be positive"}
		}
		if s.Kerf < 0 || s.Price < 0 {
			return &model.ValidationError{Field: "stock " + name, Value: s, Reason: "kerf and price must not be negative"}
		}
	}
	return nil
}

// StockNames lists the configured presets alphabetically.
func (c Config) StockNames() []string {
	names := make([]string, 0, len(c.Stocks))
	for name := range c.Stocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyStock overlays the named preset on settings.
func (c Config) ApplyStock(settings model.Settings, name string) (model.Settings, error) {
	preset, ok := c.Stocks[name]
	if !ok {
		known := "none configured"
		if names := c.StockNames(); len(names) > 0 {
			known = strings.Join(names, ", ")
		}
		return settings, &model.ValidationError{Field: "stock", Value: name, Reason: "unknown preset (available: " + known + ")"}
	}

	settings.Capacity = preset.Length
	if preset.Kerf > 0 {
		settings.KerfAllowance = preset.Kerf
	}
	if preset.Price > 0 {
		settings.PricePerUnit = preset.Price
	}
	return settings, nil
}
