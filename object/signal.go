// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type (
	// HandlerFunc is a signal handler. The obj is the object the handler was
	// connected on, param is the emitted parameter (always nil for signals
	// declared without one), and data is the value passed to Connect.
	HandlerFunc func(obj Instance, param any, data any)

	// HandlerID identifies a connected handler within its signal. Ids are
	// assigned from a per-signal counter, and never reused.
	HandlerID uint64

	// Signal is a named list of handlers, declared on a class (see
	// Class.NewSignal), and reachable from instances of that class and any
	// class derived from it.
	Signal struct {
		class    *Class
		head     *handler
		name     string
		mu       sync.Mutex
		nextID   HandlerID
		count    int
		hasParam bool
	}

	handler struct {
		prev   *handler
		next   *handler
		signal *Signal
		fn     HandlerFunc
		data   any
		owner  *Object
		id     HandlerID
		active atomic.Bool
		linked bool
	}
)

// Name returns the name of the signal.
func (s *Signal) Name() string { return s.name }

// Class returns the class that declared the signal.
func (s *Signal) Class() *Class { return s.class }

// HasParam reports whether emissions carry a parameter.
func (s *Signal) HasParam() bool { return s.hasParam }

// Len returns the number of connected handlers.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Emit invokes every active handler of the signal, regardless of the object
// it was connected on, most recently connected first. The param is dropped
// if the signal was declared without one.
func (s *Signal) Emit(param any) {
	s.emit(nil, param)
}

func (s *Signal) emit(owner *Object, param any) {
	if !s.hasParam && param != nil {
		s.class.registry.sink.Warning(`signal`).
			Str(`signal`, s.name).
			Log(`object: parameter passed to a signal declared without one`)
		param = nil
	}

	// snapshot, so handlers may connect and disconnect during emission
	s.mu.Lock()
	handlers := make([]*handler, 0, s.count)
	for h := s.head; h != nil; h = h.next {
		if owner == nil || h.owner == owner {
			handlers = append(handlers, h)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		if !h.active.Load() {
			continue
		}
		self := h.owner.self
		if self == nil {
			continue
		}
		h.fn(self, param, h.data)
	}
}

func (s *Signal) connect(owner *Object, fn HandlerFunc, data any) *handler {
	h := &handler{
		signal: s,
		fn:     fn,
		data:   data,
		owner:  owner,
	}
	h.active.Store(true)

	s.mu.Lock()
	s.nextID++
	h.id = s.nextID
	h.linked = true
	h.next = s.head
	if h.next != nil {
		h.next.prev = h
	}
	s.head = h
	s.count++
	s.mu.Unlock()

	return h
}

// remove unlinks h, returning false if it was already removed.
func (s *Signal) remove(h *handler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !h.linked {
		return false
	}
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		s.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	h.prev = nil
	h.next = nil
	h.linked = false
	h.active.Store(false)
	s.count--
	return true
}

func (s *Signal) find(owner *Object, id HandlerID) *handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := s.head; h != nil; h = h.next {
		if h.id == id && h.owner == owner {
			return h
		}
	}
	return nil
}

// Connect adds a handler for the named signal, which must be declared by the
// class of obj, or one of its ancestors. Handlers are disconnected
// automatically when obj is finalized.
func Connect(obj Instance, name string, fn HandlerFunc, data any) (HandlerID, error) {
	o, s, err := resolveSignal(obj, name)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, ErrNilHandler
	}
	if !o.alive(`connect`) {
		return 0, ErrDeadObject
	}
	h := s.connect(o, fn, data)
	o.handlers = append(o.handlers, h)
	return h.id, nil
}

// Disconnect removes a handler, previously connected on obj. Returns false
// if no such handler is connected.
func Disconnect(obj Instance, name string, id HandlerID) bool {
	o, s, err := resolveSignal(obj, name)
	if err != nil {
		return false
	}
	h := s.find(o, id)
	if h == nil || !s.remove(h) {
		return false
	}
	for i, v := range o.handlers {
		if v == h {
			o.handlers = append(o.handlers[:i], o.handlers[i+1:]...)
			break
		}
	}
	return true
}

// Block deactivates a handler, without disconnecting it.
func Block(obj Instance, name string, id HandlerID) bool {
	return setActive(obj, name, id, false)
}

// Unblock reactivates a handler deactivated by Block.
func Unblock(obj Instance, name string, id HandlerID) bool {
	return setActive(obj, name, id, true)
}

func setActive(obj Instance, name string, id HandlerID, active bool) bool {
	o, s, err := resolveSignal(obj, name)
	if err != nil {
		return false
	}
	h := s.find(o, id)
	if h == nil {
		return false
	}
	h.active.Store(active)
	return true
}

// Emit invokes the active handlers of the named signal that were connected
// on obj, most recently connected first.
func Emit(obj Instance, name string, param any) error {
	o, s, err := resolveSignal(obj, name)
	if err != nil {
		return err
	}
	s.emit(o, param)
	return nil
}

// LookupSignal finds the named signal, via the class of obj.
func LookupSignal(obj Instance, name string) *Signal {
	_, s, _ := resolveSignal(obj, name)
	return s
}

func resolveSignal(obj Instance, name string) (*Object, *Signal, error) {
	o := baseOf(obj)
	if o == nil || o.class == nil {
		return nil, nil, ErrNilInstance
	}
	s := o.class.LookupSignal(name)
	if s == nil {
		o.class.registry.sink.Warning(`signal`).
			Str(`type`, o.class.name).
			Str(`signal`, name).
			Log(`object: unknown signal`)
		return o, nil, fmt.Errorf(`%w: %s on %s`, ErrUnknownSignal, name, o.class.name)
	}
	return o, s, nil
}

func (x *Object) disconnectAll() {
	for _, h := range x.handlers {
		h.signal.remove(h)
	}
	x.handlers = nil
}
