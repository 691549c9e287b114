// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package hashtable

import (
	"fmt"

	"github.com/joeycumines/go-objrt/internal/logging"
)

const (
	// MaxExponent is the hard ceiling on the bucket array size, 2^30 slots.
	MaxExponent = 30

	// DefaultExponent gives an initial capacity of 8 slots.
	DefaultExponent = 3
)

// tableOptions holds configuration options for Table creation.
type tableOptions struct {
	logger      *logging.Logger
	initialMod  uint8
	maxMod      uint8
	sinkPresent bool
	sink        *logging.Sink
}

// Option configures a Table instance.
type Option interface {
	applyTable(*tableOptions) error
}

// tableOptionImpl implements Option.
type tableOptionImpl struct {
	applyTableFunc func(*tableOptions) error
}

func (x *tableOptionImpl) applyTable(opts *tableOptions) error {
	return x.applyTableFunc(opts)
}

// WithInitialExponent sets the initial capacity to 2^exp slots.
func WithInitialExponent(exp int) Option {
	return &tableOptionImpl{func(opts *tableOptions) error {
		if exp < 0 || exp > MaxExponent {
			return fmt.Errorf(`hashtable: initial exponent %d out of range [0, %d]`, exp, MaxExponent)
		}
		opts.initialMod = uint8(exp)
		return nil
	}}
}

// WithMaxExponent lowers the capacity ceiling below 2^MaxExponent. Growth
// past the ceiling is refused (and logged), but inserts still succeed, by
// lengthening chains.
func WithMaxExponent(exp int) Option {
	return &tableOptionImpl{func(opts *tableOptions) error {
		if exp < 0 || exp > MaxExponent {
			return fmt.Errorf(`hashtable: max exponent %d out of range [0, %d]`, exp, MaxExponent)
		}
		opts.maxMod = uint8(exp)
		return nil
	}}
}

// WithLogger sets the logger used to report refused growth. If unset, a
// stumpy logger writing to stderr is used.
func WithLogger(logger *logging.Logger) Option {
	return &tableOptionImpl{func(opts *tableOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithSink shares an existing sink, so tables owned by another context
// object report through the same (throttled) logger. A nil sink discards.
// Takes precedence over WithLogger.
func WithSink(sink *logging.Sink) Option {
	return &tableOptionImpl{func(opts *tableOptions) error {
		opts.sink = sink
		opts.sinkPresent = true
		return nil
	}}
}

// resolveTableOptions applies Option instances to tableOptions.
func resolveTableOptions(opts []Option) (*tableOptions, error) {
	cfg := &tableOptions{
		initialMod: DefaultExponent,
		maxMod:     MaxExponent,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyTable(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.initialMod > cfg.maxMod {
		cfg.initialMod = cfg.maxMod
	}
	if !cfg.sinkPresent {
		cfg.sink = logging.New(cfg.logger, nil)
	}
	return cfg, nil
}
