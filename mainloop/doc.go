// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package mainloop implements a single-threaded, cooperative scheduler, that
// drives a list of sources through a four phase cycle.
//
// # Phases
//
// A [MainLoop] advances exactly one phase per [MainLoop.Step]:
//
//	Prepare  → Check → Dispatch → Cleanup → Prepare ...
//
// Each [Source] independently tracks its own [SourceState]:
//
//	None → Prepare → Check → Active → Cleanup → Prepare (continue)
//	                                          → None    (finished, detached)
//
// A source's prepare hook may hold it in Prepare, and its check hook may hold
// it in Check, for the next cycle. Sources in Active have their callback
// dispatched, and every source that took part in the cycle has its cleanup
// hook called, regardless of the phase it was held back in.
//
// The sources of a cycle are fixed when its Prepare phase starts. Sources
// attached mid-cycle take part from the next cycle. Sources detached
// mid-cycle skip the rest of it, except for their cleanup hook, which is still
// called if they were visited by Prepare. Within a phase, sources are visited
// most recently attached first.
//
// # Running
//
// [MainLoop.Run] steps the loop until, at a cycle boundary, no sources
// remain, [MainLoop.Quit] was called, or the context is done. There are no
// suspension points: a callback that blocks stalls every other source. Time
// based readiness, e.g. [TimeoutSource], is implemented as a check hook that
// compares a deadline each cycle.
//
// By default the loop spins. [WithIdleInterval] bounds how long the loop may
// wait, after a cycle that dispatched nothing, before it polls again, which
// is cut short by [MainLoop.Wakeup] (e.g. via [ChannelSource.Post]), or the
// earliest ready time of any attached source.
//
// # Thread Safety
//
// Sources and the loop itself are owned by the goroutine calling Run (or
// Step). Only [MainLoop.Quit], [MainLoop.Wakeup], [MainLoop.Len],
// [MainLoop.IsRunning], and [ChannelSource.Post] are safe for concurrent
// use.
package mainloop
