// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"time"

	"github.com/joeycumines/go-objrt/object"
)

type (
	// TimeoutSource is ready once its interval has elapsed. If its callback
	// returns true, it re-arms, to fire again an interval later.
	TimeoutSource struct {
		Source
		deadline time.Time
		interval time.Duration
		armedFor uint64
	}
)

var (
	// TimeoutSourceType is the type of TimeoutSource.
	TimeoutSourceType = &object.TypeDef{
		Name:     `TimeoutSource`,
		Parent:   SourceType,
		Instance: (*TimeoutSource)(nil),
	}

	// IdleSourceType is the type of sources allocated by NewIdle.
	IdleSourceType = &object.TypeDef{
		Name:   `IdleSource`,
		Parent: SourceType,
	}
)

// NewTimeout allocates a TimeoutSource, that dispatches fn every interval,
// measured from when it is first prepared after being attached, then from
// the end of each cycle it was dispatched in.
func NewTimeout(r *object.Registry, interval time.Duration, fn Callback, data any) (*TimeoutSource, error) {
	t, err := object.NewOf[*TimeoutSource](r, TimeoutSourceType)
	if err != nil {
		return nil, err
	}
	t.interval = max(interval, 0)
	t.funcs = Funcs{
		Prepare: t.prepareHook,
		Check:   t.checkHook,
		Cleanup: t.cleanupHook,
	}
	t.SetCallback(fn, data)
	return t, nil
}

// Interval returns the interval of the timeout.
func (x *TimeoutSource) Interval() time.Duration {
	return x.interval
}

// Deadline returns the time the timeout is next ready, or the zero time if
// it is not armed.
func (x *TimeoutSource) Deadline() time.Time {
	return x.deadline
}

func (x *TimeoutSource) arm() {
	x.deadline = time.Now().Add(x.interval)
	x.armedFor = x.id
	x.SetReadyAt(x.deadline)
}

func (x *TimeoutSource) prepareHook(*Source) bool {
	if x.deadline.IsZero() || x.armedFor != x.id {
		x.arm()
	}
	return true
}

func (x *TimeoutSource) checkHook(*Source) bool {
	return !time.Now().Before(x.deadline)
}

func (x *TimeoutSource) cleanupHook(src *Source) {
	switch src.state {
	case StateCleanup:
		x.arm()
	case StateNone:
		x.deadline = time.Time{}
		x.SetReadyAt(time.Time{})
	}
}

// NewIdle allocates a source with no hooks, that dispatches fn every cycle,
// until it returns false.
func NewIdle(r *object.Registry, fn Callback, data any) (*Source, error) {
	src, err := object.NewOf[*Source](r, IdleSourceType)
	if err != nil {
		return nil, err
	}
	src.SetCallback(fn, data)
	return src, nil
}
