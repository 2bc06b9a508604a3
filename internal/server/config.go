// Package server provides configuration helpers that define runtime defaults
// and validation for the relay service.
package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the server configuration settings.
type Config struct {
	Port            string        `env:"PORT"             envDefault:"8000" validate:"required,numeric"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS"  envDefault:"*"    envSeparator:","`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" envDefault:"0"    validate:"gte=0"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"  validate:"gt=0"`
}

var validate = validator.New()

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() Config {
	cfg, err := parseConfig(env.Options{Environment: map[string]string{}})
	if err != nil {
		// Defaults are static; a failure here means the struct tags are broken.
		panic(err)
	}
	return cfg
}

// LoadConfig reads the configuration from the process environment,
// falling back to defaults for unset variables.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// LoadConfigFrom reads the configuration from the given variables only.
func LoadConfigFrom(environment map[string]string) (Config, error) {
	if environment == nil {
		environment = map[string]string{}
	}
	return parseConfig(env.Options{Environment: environment})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	for i := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + c.Port
}
