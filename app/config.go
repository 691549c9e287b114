// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/go-objrt/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config represents the optional application configuration file.
type Config struct {
	// ID identifies the application instance. Defaults to a random UUID.
	ID string `yaml:"id,omitempty"`

	// Name is the application name. Defaults to the executable's name.
	Name string `yaml:"name,omitempty"`

	// LogLevel is the minimum level logged, e.g. "warning" or "debug".
	LogLevel string `yaml:"log_level,omitempty"`

	// Checks toggles the guard checks of the type registry, see
	// object.WithChecks. Defaults to enabled.
	Checks *bool `yaml:"checks,omitempty"`

	// IdleInterval is passed to mainloop.WithIdleInterval, e.g. "10ms".
	IdleInterval time.Duration `yaml:"idle_interval,omitempty"`
}

// LoadConfig reads the YAML file at path, if present. A missing file results
// in the default (zero) configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("app: failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("app: failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.LogLevel != `` {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("app: invalid log level %q", c.LogLevel)
		}
	}
	if c.IdleInterval < 0 {
		return fmt.Errorf("app: negative idle interval %s", c.IdleInterval)
	}
	if strings.TrimSpace(c.ID) != c.ID {
		return fmt.Errorf("app: id %q has surrounding whitespace", c.ID)
	}
	return nil
}

func (c *Config) checks() bool {
	return c.Checks == nil || *c.Checks
}
