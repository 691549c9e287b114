// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
)

// Standard errors.
var (
	// ErrAlreadyRunning is returned when Run is called on a loop that is
	// already running on another goroutine.
	ErrAlreadyRunning = errors.New(`mainloop: loop is already running`)

	// ErrReentrantRun is returned when Run is called from within the loop,
	// e.g. from a source callback.
	ErrReentrantRun = errors.New(`mainloop: cannot call Run from within the loop`)

	// ErrAttached is returned when attaching a source that is already
	// attached to a loop.
	ErrAttached = errors.New(`mainloop: source is already attached`)

	// ErrNilLoop is returned when a method is called on a nil loop.
	ErrNilLoop = errors.New(`mainloop: nil loop`)

	// ErrNilSource is returned when a nil source is provided.
	ErrNilSource = errors.New(`mainloop: nil source`)

	// ErrLoopFinalized is returned for operations on a loop that has been
	// finalized.
	ErrLoopFinalized = errors.New(`mainloop: loop has been finalized`)
)
