// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"github.com/joeycumines/go-objrt/internal/logging"
)

// registryOptions holds configuration options for Registry creation.
type registryOptions struct {
	logger      *logging.Logger
	sink        *logging.Sink
	sinkPresent bool
	checks      bool
}

// RegistryOption configures a Registry instance.
type RegistryOption interface {
	applyRegistry(*registryOptions) error
}

// registryOptionImpl implements RegistryOption.
type registryOptionImpl struct {
	applyRegistryFunc func(*registryOptions) error
}

func (x *registryOptionImpl) applyRegistry(opts *registryOptions) error {
	return x.applyRegistryFunc(opts)
}

// WithChecks toggles the guard checks performed by the registry and its
// instances: type checks (IsA always succeeds when disabled), and the
// instance type verification in New. Defaults to enabled.
func WithChecks(enabled bool) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		opts.checks = enabled
		return nil
	}}
}

// WithLogger sets the logger used to report contract violations. If unset, a
// stumpy logger writing to stderr is used.
func WithLogger(logger *logging.Logger) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithSink shares an existing logging sink. A nil sink discards. Takes
// precedence over WithLogger.
func WithSink(sink *logging.Sink) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		opts.sink = sink
		opts.sinkPresent = true
		return nil
	}}
}

// resolveRegistryOptions applies RegistryOption instances to registryOptions.
func resolveRegistryOptions(opts []RegistryOption) (*registryOptions, error) {
	cfg := &registryOptions{
		checks: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRegistry(cfg); err != nil {
			return nil, err
		}
	}
	if !cfg.sinkPresent {
		cfg.sink = logging.New(cfg.logger, nil)
	}
	return cfg, nil
}
