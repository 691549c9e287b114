// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package logging provides the logger plumbing shared by the runtime
// packages: a logiface logger, defaulting to a stumpy JSON logger on stderr,
// plus per-category throttling of contract-violation warnings.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	// Logger is the logger type accepted by the runtime packages.
	Logger = logiface.Logger[logiface.Event]

	// Builder is the fluent log builder returned by Sink methods.
	Builder = logiface.Builder[logiface.Event]

	// Sink pairs a logger with a warning throttle. A nil Sink is valid, and
	// discards everything.
	Sink struct {
		logger  *Logger
		limiter *catrate.Limiter
	}
)

// DefaultLevel is the level of loggers built by NewDefault.
const DefaultLevel = logiface.LevelWarning

// DefaultRates bound how many warnings per category are written.
var DefaultRates = map[time.Duration]int{
	time.Second: 8,
	time.Minute: 64,
}

// NewDefault builds a stumpy logger writing JSON lines to w, or os.Stderr if
// w is nil.
func NewDefault(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// New returns a Sink for the given logger. If logger is nil, NewDefault is
// used, at DefaultLevel. Warnings are throttled using rates, or DefaultRates
// if rates is empty.
func New(logger *Logger, rates map[time.Duration]int) *Sink {
	if logger == nil {
		logger = NewDefault(nil, DefaultLevel)
	}
	if len(rates) == 0 {
		rates = DefaultRates
	}
	return &Sink{
		logger:  logger,
		limiter: catrate.NewLimiter(rates),
	}
}

// Logger returns the underlying logger, which may be nil.
func (x *Sink) Logger() *Logger {
	if x == nil {
		return nil
	}
	return x.logger
}

// Warning returns a builder for a contract-violation warning, or nil if the
// category has exceeded its rate, or the level is disabled.
func (x *Sink) Warning(category string) *Builder {
	if !x.allow(category) {
		return nil
	}
	return x.logger.Warning().Str(`category`, category)
}

// Err returns a builder for a resource-exhaustion error, throttled the same
// way as Warning.
func (x *Sink) Err(category string) *Builder {
	if !x.allow(category) {
		return nil
	}
	return x.logger.Err().Str(`category`, category)
}

// Debug returns an unthrottled debug builder.
func (x *Sink) Debug(category string) *Builder {
	if x == nil {
		return nil
	}
	return x.logger.Debug().Str(`category`, category)
}

func (x *Sink) allow(category string) bool {
	if x == nil || x.logger == nil {
		return false
	}
	if x.limiter == nil {
		return true
	}
	_, ok := x.limiter.Allow(category)
	return ok
}

// ParseLevel maps a syslog keyword (as produced by logiface.Level.String),
// or one of the common aliases, to a level.
func ParseLevel(s string) (logiface.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case `warn`:
		return logiface.LevelWarning, true
	case `error`:
		return logiface.LevelError, true
	case `information`, `informational`:
		return logiface.LevelInformational, true
	case `critical`:
		return logiface.LevelCritical, true
	case `emergency`, `panic`:
		return logiface.LevelEmergency, true
	}
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			return level, true
		}
	}
	return 0, false
}
