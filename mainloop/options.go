// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-objrt/internal/logging"
	"github.com/joeycumines/go-objrt/object"
)

// loopOptions holds configuration options for MainLoop creation.
type loopOptions struct {
	registry     *object.Registry
	logger       *logging.Logger
	idleInterval time.Duration
}

// LoopOption configures a MainLoop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (x *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return x.applyLoopFunc(opts)
}

// WithRegistry sets the type registry the loop is allocated from. Defaults
// to object.Default.
func WithRegistry(r *object.Registry) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.registry = r
		return nil
	}}
}

// WithLogger sets the logger the loop reports through. Defaults to the
// registry's.
func WithLogger(logger *logging.Logger) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithIdleInterval allows the loop to wait up to d, after a cycle that
// dispatched nothing, before starting the next. The wait is cut short by
// Wakeup, Quit, context cancellation, or the earliest ready time of an
// attached source. Defaults to 0, meaning the loop never waits.
func WithIdleInterval(d time.Duration) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if d < 0 {
			return fmt.Errorf(`mainloop: negative idle interval %s`, d)
		}
		opts.idleInterval = d
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.registry == nil {
		cfg.registry = object.Default()
	}
	return cfg, nil
}
