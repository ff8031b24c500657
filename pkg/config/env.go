package config

import (
	"fmt"
	"log/slog"

	"go-simpler.org/env"
)

// Env holds the settings taken from environment variables.
type Env struct {
	// Path of the INI configuration file. Default: ocrbatch.ini
	ConfigPath string `env:"OCRBATCH_CONFIG" default:"ocrbatch.ini"`
	// Log level (DEBUG, INFO, WARN, ERROR). Default: INFO
	LogLevelStr string `env:"OCRBATCH_LOG_LEVEL" default:"INFO"`
	LogLevel    slog.Level
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (*Env, error) {
	var e Env
	if err := env.Load(&e, nil); err != nil {
		return nil, err
	}
	if err := e.LogLevel.UnmarshalText([]byte(e.LogLevelStr)); err != nil {
		return nil, fmt.Errorf("parsing log level from env: %w", err)
	}
	return &e, nil
}
