// Package config loads the app configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
)

// APIConfig locates the remote care API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"CARE_API_URL" env-default:"http://localhost:8080"`
	Timeout time.Duration `yaml:"timeout" env:"CARE_API_TIMEOUT" env-default:"10s"`
}

// NotificationsConfig controls the local device notifications.
type NotificationsConfig struct {
	Database     string        `yaml:"database" env:"CARE_DB" env-default:"care-tracker.sqlite"`
	PollInterval time.Duration `yaml:"poll_interval" env:"CARE_POLL_INTERVAL" env-default:"30s"`

	// Blocked answers every permission request with a refusal.
	Blocked bool `yaml:"blocked" env:"CARE_NOTIFICATIONS_BLOCKED"`
}

// Config is the complete app configuration.
type Config struct {
	LogFile       string              `yaml:"log_file" env:"CARE_LOG_FILE" env-default:"care-tracker.log"`
	LogLevel      string              `yaml:"log_level" env:"CARE_LOG_LEVEL" env-default:"info"`
	Timezone      string              `yaml:"timezone" env:"CARE_TIMEZONE" env-default:"Local"`
	API           APIConfig           `yaml:"api"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// Load reads the configuration at path. When path is empty or the file does not exist, only
// the environment and defaults are used.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("error reading env: %w", err)
		}

		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("error reading env: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}

	if c.Notifications.PollInterval <= 0 {
		return fmt.Errorf("notification poll interval must be positive, got %s", c.Notifications.PollInterval)
	}

	return nil
}

// Location returns the timezone reminders are entered and scheduled in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone %s: %w", c.Timezone, err)
	}

	return loc, nil
}

// Level returns the configured log level.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("error parsing log level %s: %w", c.LogLevel, err)
	}

	return level, nil
}
