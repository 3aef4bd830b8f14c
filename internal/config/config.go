// Package config loads settings from defaults, an optional YAML file, a .env
// file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/app"
)

const EnvConfigPath = "HEALTHPAL_CONFIG"

type Config struct {
	DBPath              string  `yaml:"db_path" env:"HEALTHPAL_DB_PATH"`
	DayTimezone         string  `yaml:"day_timezone" env:"HEALTHPAL_DAY_TIMEZONE"`
	LogLevel            string  `yaml:"log_level" env:"HEALTHPAL_LOG_LEVEL"`
	LogFormat           string  `yaml:"log_format" env:"HEALTHPAL_LOG_FORMAT"`
	DefaultBodyweightKg float64 `yaml:"default_bodyweight_kg" env:"HEALTHPAL_DEFAULT_BODYWEIGHT_KG"`
	MetricsFile         string  `yaml:"metrics_file" env:"HEALTHPAL_METRICS_FILE"`
	OpenFoodFactsURL    string  `yaml:"openfoodfacts_url" env:"HEALTHPAL_OPENFOODFACTS_URL"`
}

func Default() Config {
	return Config{
		DayTimezone:         "UTC",
		LogLevel:            "warn",
		LogFormat:           "text",
		DefaultBodyweightKg: 70,
	}
}

// Load resolves the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
		explicit = path != ""
	}
	if !explicit {
		p, err := app.DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := loadFile(path, &cfg, explicit); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.DBPath == "" {
		p, err := app.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = p
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.DayTimezone); err != nil {
		return fmt.Errorf("invalid day_timezone %q: %w", c.DayTimezone, err)
	}
	if c.DefaultBodyweightKg <= 0 {
		return fmt.Errorf("default_bodyweight_kg must be > 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	return nil
}

// Location returns the timezone that defines day boundaries. Call Validate
// first; an unloadable zone falls back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
