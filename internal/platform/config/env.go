// Package config loads process configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds the environment configuration for chronicle binaries.
type Settings struct {
	// DBPath is the SQLite journal location.
	DBPath string `env:"CHRONICLE_DB_PATH" envDefault:"chronicle.db"`
	// LogMode selects the logger config ("dev" or "prod").
	LogMode string `env:"CHRONICLE_LOG_MODE" envDefault:"dev"`
	// OTELEndpoint enables trace export when non-empty.
	OTELEndpoint string `env:"CHRONICLE_OTEL_ENDPOINT"`
	// OTELEnabled gates tracing even when an endpoint is set.
	OTELEnabled bool `env:"CHRONICLE_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Settings from the environment.
func Load() (Settings, error) {
	var settings Settings
	if err := ParseEnv(&settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
