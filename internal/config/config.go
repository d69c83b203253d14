// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Platform connection. The API key is the single required secret;
	// starting without it is a fatal error.
	APIKey   string `env:"EXECOS_API_KEY,required"`
	Endpoint string `env:"EXECOS_ENDPOINT" envDefault:"https://api.execos.dev"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Remote call timeouts
	HTTPTimeout              time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	RealtimeHandshakeTimeout time.Duration `env:"REALTIME_HANDSHAKE_TIMEOUT" envDefault:"10s"`
}

// IsDevelopment returns true if running in development mode.
// Development runs log with source positions.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
