// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-objrt/internal/logging"
	"github.com/joeycumines/go-objrt/object"
)

// MainLoop is the instance struct of MainLoopType. See the package docs.
type MainLoop struct {
	object.Object

	sink     *logging.Sink
	registry *object.Registry
	head     *Source
	// cycle is the marked set of sources, each referenced, from PhasePrepare
	// until the end of PhaseCleanup
	cycle        []*Source
	wake         chan struct{}
	idleInterval time.Duration
	goroutine    atomic.Uint64
	count        atomic.Int32
	nextID       uint64
	dispatched   int
	quit         atomic.Bool
	running      atomic.Bool
	stepping     bool
	phase        Phase
}

// MainLoopType is the type of MainLoop. Disposing a loop detaches every
// source still attached to it.
var MainLoopType = &object.TypeDef{
	Name:     `MainLoop`,
	Instance: (*MainLoop)(nil),
	ClassInit: func(c *object.Class) {
		c.Dispose = func(obj object.Instance) {
			obj.(*MainLoop).detachAll()
		}
	},
}

// New allocates a MainLoop. The caller owns the returned reference.
func New(options ...LoopOption) (*MainLoop, error) {
	cfg, err := resolveLoopOptions(options)
	if err != nil {
		return nil, err
	}
	l, err := object.NewOf[*MainLoop](cfg.registry, MainLoopType)
	if err != nil {
		return nil, err
	}
	l.registry = cfg.registry
	if cfg.logger != nil {
		l.sink = logging.New(cfg.logger, nil)
	} else {
		l.sink = cfg.registry.Sink()
	}
	l.wake = make(chan struct{}, 1)
	l.idleInterval = cfg.idleInterval
	return l, nil
}

// Registry returns the registry the loop was allocated from, which sources
// attached to it are typically allocated from too.
func (l *MainLoop) Registry() *object.Registry {
	if l == nil {
		return nil
	}
	return l.registry
}

// nilLoop reports a call on a nil loop, via the Default registry.
func nilLoop(op string) {
	object.Default().Sink().Warning(`mainloop`).
		Str(`op`, op).
		Log(`mainloop: call on a nil loop`)
}

// Attach prepends src to the loop, taking a reference to it, and returns its
// newly assigned id. The source is first prepared on the next cycle.
func (l *MainLoop) Attach(src Instance) (uint64, error) {
	if l == nil {
		nilLoop(`attach`)
		return 0, ErrNilLoop
	}
	s := sourceOf(src)
	if s == nil {
		l.sink.Warning(`mainloop`).Log(`mainloop: attach of a nil source`)
		return 0, ErrNilSource
	}
	if l.Object.State() == object.StateDead {
		return 0, ErrLoopFinalized
	}
	if !s.loop.CompareAndSwap(nil, l) {
		l.sink.Warning(`mainloop`).
			Str(`source`, s.Name()).
			Log(`mainloop: attach of a source that is already attached`)
		return 0, ErrAttached
	}
	object.Ref(s)
	l.nextID++
	s.id = l.nextID
	s.state = StatePrepare
	s.prev = nil
	s.next = l.head
	if s.next != nil {
		s.next.prev = s
	}
	l.head = s
	l.count.Add(1)
	l.sink.Debug(`mainloop`).
		Str(`source`, s.Name()).
		Uint64(`id`, s.id).
		Log(`mainloop: attached source`)
	return s.id, nil
}

// Detach removes src from the loop, releasing the loop's reference. Returns
// false if src is not attached to this loop.
func (l *MainLoop) Detach(src Instance) bool {
	if l == nil {
		nilLoop(`detach`)
		return false
	}
	s := sourceOf(src)
	if s == nil || s.loop.Load() != l {
		return false
	}
	return l.detach(s)
}

func (l *MainLoop) detach(s *Source) bool {
	if !s.loop.CompareAndSwap(l, nil) {
		return false
	}
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		l.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
	s.prev = nil
	s.next = nil
	s.state = StateNone
	l.count.Add(-1)
	l.sink.Debug(`mainloop`).
		Str(`source`, s.Name()).
		Uint64(`id`, s.id).
		Log(`mainloop: detached source`)
	object.Unref(s)
	return true
}

func (l *MainLoop) detachAll() {
	for l.head != nil {
		l.detach(l.head)
	}
	l.release()
}

// Sources returns the attached sources, in the order they are visited.
func (l *MainLoop) Sources() []*Source {
	if l == nil {
		return nil
	}
	var sources []*Source
	for s := l.head; s != nil; s = s.next {
		sources = append(sources, s)
	}
	return sources
}

// Len returns the number of attached sources. Safe for concurrent use.
func (l *MainLoop) Len() int {
	if l == nil {
		return 0
	}
	return int(l.count.Load())
}

// Phase returns the phase the next Step will run.
func (l *MainLoop) Phase() Phase {
	if l == nil {
		return PhasePrepare
	}
	return l.phase
}

// IsRunning reports whether Run is in progress. Safe for concurrent use.
func (l *MainLoop) IsRunning() bool {
	if l == nil {
		return false
	}
	return l.running.Load()
}

// Step runs exactly one phase, then advances to the next. Calling Step from
// within a phase, e.g. from a source hook, is a contract violation, and is
// ignored.
func (l *MainLoop) Step() {
	if l == nil {
		nilLoop(`step`)
		return
	}
	if l.stepping {
		l.sink.Warning(`mainloop`).Log(`mainloop: step from within the loop`)
		return
	}
	if l.Object.State() == object.StateDead {
		l.sink.Warning(`mainloop`).Log(`mainloop: step of a finalized loop`)
		return
	}
	if l.goroutine.Load() == 0 {
		l.goroutine.Store(getGoroutineID())
		defer l.goroutine.Store(0)
	}
	l.stepping = true
	defer func() { l.stepping = false }()

	switch l.phase {
	case PhasePrepare:
		l.prepare()
	case PhaseCheck:
		l.check()
	case PhaseDispatch:
		l.dispatch()
	case PhaseCleanup:
		l.cleanup()
	}
	l.phase = l.phase.next()
}

// prepare marks the sources of the cycle, then prepares them.
func (l *MainLoop) prepare() {
	l.release()
	l.dispatched = 0
	for s := l.head; s != nil; s = s.next {
		l.cycle = append(l.cycle, object.Ref(s))
	}
	for _, s := range l.cycle {
		if s.loop.Load() != l {
			continue
		}
		s.touchedBy = l
		if s.state != StatePrepare {
			continue
		}
		if s.prepare() && s.loop.Load() == l && s.state == StatePrepare {
			s.state = StateCheck
		}
	}
}

func (l *MainLoop) check() {
	for _, s := range l.cycle {
		if s.loop.Load() != l || s.state != StateCheck {
			continue
		}
		if s.check() && s.loop.Load() == l && s.state == StateCheck {
			s.state = StateActive
		}
	}
}

func (l *MainLoop) dispatch() {
	for _, s := range l.cycle {
		if s.loop.Load() != l || s.state != StateActive {
			continue
		}
		if s.callback == nil {
			l.sink.Warning(`mainloop`).
				Str(`source`, s.Name()).
				Log(`mainloop: active source has no callback`)
			s.state = StateCleanup
			continue
		}
		l.dispatched++
		ok := s.callback(s.data)
		if s.loop.Load() != l || s.state != StateActive {
			// detached, and possibly re-attached, by its own callback
			continue
		}
		if ok {
			s.state = StateCleanup
		} else {
			s.state = StateNone
		}
	}
}

// cleanup visits every source touched by this cycle's prepare phase, even
// if it has since been detached, then detaches the finished ones, and sweeps
// the mark.
func (l *MainLoop) cleanup() {
	for _, s := range l.cycle {
		if s.touchedBy != l {
			continue
		}
		s.touchedBy = nil
		s.cleanup()
		if s.loop.Load() != l {
			continue
		}
		switch s.state {
		case StateCleanup:
			s.state = StatePrepare
		case StateNone:
			l.detach(s)
		}
	}
	l.release()
}

func (l *MainLoop) release() {
	for i, s := range l.cycle {
		l.cycle[i] = nil
		if s.touchedBy == l {
			s.touchedBy = nil
		}
		object.Unref(s)
	}
	l.cycle = l.cycle[:0]
}

// Run steps the loop, until, at the end of a cycle, no sources remain, Quit
// has been called, or ctx is done (in which case ctx.Err() is returned). A
// loop with no sources returns immediately. Returning normally consumes any
// pending Quit.
func (l *MainLoop) Run(ctx context.Context) error {
	if l == nil {
		nilLoop(`run`)
		return ErrNilLoop
	}
	if l.isLoopGoroutine() {
		return ErrReentrantRun
	}
	if l.Object.State() == object.StateDead {
		return ErrLoopFinalized
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.goroutine.Store(getGoroutineID())
	defer l.goroutine.Store(0)

	object.Ref(l)
	defer object.Unref(l)

	if l.count.Load() == 0 {
		l.quit.Store(false)
		return nil
	}

	for {
		l.Step()
		if l.phase != PhasePrepare {
			continue
		}
		if l.quit.Swap(false) || l.count.Load() == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.dispatched == 0 && l.idleInterval > 0 {
			if err := l.idle(ctx); err != nil {
				return err
			}
		}
	}
}

// idle waits, after a cycle that dispatched nothing, bounded by the idle
// interval, and the earliest ready time of any attached source.
func (l *MainLoop) idle(ctx context.Context) error {
	d := l.idleInterval
	for s := l.head; s != nil; s = s.next {
		if s.readyAt.IsZero() {
			continue
		}
		if until := time.Until(s.readyAt); until < d {
			d = until
		}
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.wake:
	case <-timer.C:
	}
	return nil
}

// Quit stops Run at the end of the current cycle. If the loop is not
// running, the quit stays pending, and the next Run returns at the end of
// its first cycle. Safe for concurrent use.
func (l *MainLoop) Quit() {
	if l == nil {
		nilLoop(`quit`)
		return
	}
	l.quit.Store(true)
	l.Wakeup()
}

// Wakeup interrupts an idle wait, see WithIdleInterval. Safe for concurrent
// use.
func (l *MainLoop) Wakeup() {
	if l == nil {
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *MainLoop) isLoopGoroutine() bool {
	id := l.goroutine.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
