// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package app

import (
	"github.com/joeycumines/go-objrt/internal/logging"
	"github.com/joeycumines/go-objrt/object"
)

// appOptions holds configuration options for Application creation.
type appOptions struct {
	config   *Config
	logger   *logging.Logger
	registry *object.Registry
	id       string
}

// Option configures an Application instance.
type Option interface {
	applyApp(*appOptions) error
}

// appOptionImpl implements Option.
type appOptionImpl struct {
	applyAppFunc func(*appOptions) error
}

func (x *appOptionImpl) applyApp(opts *appOptions) error {
	return x.applyAppFunc(opts)
}

// WithConfig sets the configuration, e.g. from LoadConfig.
func WithConfig(cfg *Config) Option {
	return &appOptionImpl{func(opts *appOptions) error {
		if cfg != nil {
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		opts.config = cfg
		return nil
	}}
}

// WithLogger sets the logger, taking precedence over the configured log
// level.
func WithLogger(logger *logging.Logger) Option {
	return &appOptionImpl{func(opts *appOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithRegistry sets the type registry the application, its loop, and its
// sources are allocated from. By default, a new registry is created, per the
// configuration.
func WithRegistry(r *object.Registry) Option {
	return &appOptionImpl{func(opts *appOptions) error {
		opts.registry = r
		return nil
	}}
}

// WithID sets the application id, taking precedence over the configuration.
func WithID(id string) Option {
	return &appOptionImpl{func(opts *appOptions) error {
		opts.id = id
		return nil
	}}
}

// resolveAppOptions applies Option instances to appOptions.
func resolveAppOptions(opts []Option) (*appOptions, error) {
	cfg := &appOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyApp(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.config == nil {
		cfg.config = &Config{}
	}
	return cfg, nil
}
