// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-objrt/object"
)

type (
	// Funcs are the optional hooks of a source. A nil Prepare or Check is
	// treated as always returning true.
	Funcs struct {
		// Prepare is called in PhasePrepare, for sources in StatePrepare.
		// Returning false holds the source in StatePrepare until the next
		// cycle.
		Prepare func(src *Source) bool

		// Check is called in PhaseCheck, for sources in StateCheck.
		// Returning false holds the source in StateCheck until the next
		// cycle.
		Check func(src *Source) bool

		// Cleanup is called in PhaseCleanup, for every source of the cycle
		// that is still attached.
		Cleanup func(src *Source)
	}

	// Callback is dispatched when a source is ready. Returning false
	// finishes the source, detaching it at the end of the cycle.
	Callback func(data any) bool

	// Instance is implemented by every source, by embedding Source.
	Instance interface {
		object.Instance
		sourceBase() *Source
	}

	// Source is the instance struct of SourceType, and the base of every
	// other source kind.
	Source struct {
		object.Object
		readyAt  time.Time
		funcs    Funcs
		callback Callback
		data     any
		loop     atomic.Pointer[MainLoop]
		// touchedBy is the loop whose current cycle owes the source a
		// cleanup call
		touchedBy *MainLoop
		prev      *Source
		next      *Source
		name      string
		id        uint64
		state     SourceState
	}
)

// SourceType is the type of plain sources.
var SourceType = &object.TypeDef{
	Name:     `Source`,
	Instance: (*Source)(nil),
	ClassInit: func(c *object.Class) {
		c.Finalize = func(obj object.Instance) {
			src := obj.(Instance).sourceBase()
			src.funcs = Funcs{}
			src.callback = nil
			src.data = nil
		}
	},
}

func (x *Source) sourceBase() *Source { return x }

// NewSource allocates a source with the given hooks, from r (nil meaning
// object.Default). The caller owns the returned reference.
func NewSource(r *object.Registry, funcs Funcs) (*Source, error) {
	src, err := object.NewOf[*Source](r, SourceType)
	if err != nil {
		return nil, err
	}
	src.funcs = funcs
	return src, nil
}

func sourceOf(src Instance) *Source {
	if src == nil || object.TypeName(src) == `` {
		// nil, a typed nil pointer, or not allocated via the registry
		return nil
	}
	return src.sourceBase()
}

// SetFuncs replaces the hooks of the source.
func (x *Source) SetFuncs(funcs Funcs) {
	x.funcs = funcs
}

// SetCallback binds the callback dispatched when the source is ready, and
// the data passed to it.
func (x *Source) SetCallback(fn Callback, data any) {
	x.callback = fn
	x.data = data
}

// SetName sets a name for the source, used in log messages.
func (x *Source) SetName(name string) {
	x.name = name
}

// Name returns the name of the source, defaulting to its type name.
func (x *Source) Name() string {
	if x.name != `` {
		return x.name
	}
	return x.TypeName()
}

// ID returns the id assigned when the source was last attached, which is
// unique within its loop, or 0 if it was never attached.
func (x *Source) ID() uint64 {
	return x.id
}

// State returns the per-cycle state of the source.
func (x *Source) State() SourceState {
	return x.state
}

// Loop returns the loop the source is attached to, or nil. Safe for
// concurrent use.
func (x *Source) Loop() *MainLoop {
	return x.loop.Load()
}

// ReadyAt returns the ready time hint, see SetReadyAt.
func (x *Source) ReadyAt() time.Time {
	return x.readyAt
}

// SetReadyAt sets the earliest time the source may become ready, bounding
// how long an idle loop waits (see WithIdleInterval). The zero time clears
// the hint.
func (x *Source) SetReadyAt(t time.Time) {
	x.readyAt = t
}

// Destroy detaches the source from its loop, if attached, releasing the
// loop's reference. The caller's own reference, if any, is unaffected.
func (x *Source) Destroy() {
	if l := x.loop.Load(); l != nil {
		l.detach(x)
	}
}

func (x *Source) prepare() bool {
	if x.funcs.Prepare == nil {
		return true
	}
	return x.funcs.Prepare(x)
}

func (x *Source) check() bool {
	if x.funcs.Check == nil {
		return true
	}
	return x.funcs.Check(x)
}

func (x *Source) cleanup() {
	if x.funcs.Cleanup != nil {
		x.funcs.Cleanup(x)
	}
}
