package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"

	"github.com/BurntSushi/toml"
)

// Config holds all rfcst configuration.
type Config struct {
	General    GeneralConfig          `toml:"general"`
	Appearance AppearanceConfig       `toml:"appearance"`
	Server     ServerConfig           `toml:"server"`
	Logging    LoggingConfig          `toml:"logging"`
	Plants     map[string]PlantConfig `toml:"plants,omitempty"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultMonth   string `toml:"default_month"`
	DefaultFormats int    `toml:"default_formats"`
	StorePath      string `toml:"store_path,omitempty"`
	LastPlant      string `toml:"last_plant,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for `rfcst serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// PlantConfig holds per-plant settings that the catalogue cannot know.
type PlantConfig struct {
	Fuel string `toml:"fuel,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultMonth:   model.Months[model.DefaultReforecastMonth],
			DefaultFormats: 2,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8686",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rfcst")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rfcst")
}

// Path returns the full path to the config file.
func Path() string {
	if p := os.Getenv("RFCST_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Plants) > 0 {
		plants := make(map[string]PlantConfig, len(cfg.Plants))
		for id, pc := range cfg.Plants {
			plants[strings.ToUpper(strings.TrimSpace(id))] = pc
		}
		cfg.Plants = plants
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// StorePath returns the SQLite store location: env var, config, then the
// XDG data directory.
func StorePath(cfg Config) string {
	if p := os.Getenv("RFCST_STORE"); p != "" {
		return p
	}
	if cfg.General.StorePath != "" {
		return cfg.General.StorePath
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "rfcst", "plants.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "rfcst", "plants.db")
}

// DefaultMonthIndex resolves the configured default reforecast month.
func DefaultMonthIndex(cfg Config) int {
	idx, err := model.MonthIndex(cfg.General.DefaultMonth)
	if err != nil {
		return model.DefaultReforecastMonth
	}
	return idx
}

// FuelFor returns the configured fuel type of a plant.
func FuelFor(cfg Config, plantID string) model.FuelType {
	pc, ok := cfg.Plants[strings.ToUpper(strings.TrimSpace(plantID))]
	if !ok {
		return model.FuelNone
	}
	return model.ParseFuel(pc.Fuel)
}
