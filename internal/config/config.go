// Package config loads host configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the host's runtime configuration. Every field has an
// environment override and a usable default, so a bare `hearth run`
// works out of the box.
type Config struct {
	HostName  string `env:"HEARTH_HOST_NAME"  envDefault:"hearth"`
	LogLevel  string `env:"HEARTH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"HEARTH_LOG_FORMAT" envDefault:"text"`
	PluginDir string `env:"HEARTH_PLUGIN_DIR" envDefault:"plugins"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
