// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/joeycumines/go-objrt/hashtable"
)

// ObjectState is the destruction state of an object.
type ObjectState uint32

const (
	// StateLive indicates the object is reachable, with a positive
	// reference count.
	StateLive ObjectState = iota
	// StateDisposing indicates the last reference is being dropped, and the
	// Dispose hook is running.
	StateDisposing
	// StateDead indicates the object has been finalized.
	StateDead
)

// String returns a human-readable representation of the state.
func (s ObjectState) String() string {
	switch s {
	case StateLive:
		return `Live`
	case StateDisposing:
		return `Disposing`
	case StateDead:
		return `Dead`
	default:
		return `Unknown`
	}
}

type (
	// Instance is implemented by every object, by embedding Object (directly,
	// or via a parent type's instance struct).
	Instance interface {
		base() *Object
	}

	// Object is the root instance struct.
	Object struct {
		class    *Class
		self     Instance
		data     *hashtable.Table[string, dataEntry]
		handlers []*handler
		refs     atomic.Int32
		state    atomic.Uint32
	}

	dataEntry struct {
		value   any
		destroy func(value any)
	}
)

func (x *Object) base() *Object { return x }

// baseOf returns the Object embedded by obj, or nil if obj is nil (including
// a typed nil pointer).
func baseOf(obj Instance) *Object {
	if obj == nil {
		return nil
	}
	if v := reflect.ValueOf(obj); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return obj.base()
}

func (x *Object) init(c *Class, self Instance) error {
	data, err := hashtable.New[string, dataEntry](
		hashtable.String,
		freeDataEntry,
		hashtable.WithInitialExponent(2),
		hashtable.WithSink(c.registry.sink),
	)
	if err != nil {
		return err
	}
	x.class = c
	x.self = self
	x.data = data
	x.state.Store(uint32(StateLive))
	x.refs.Store(1)
	return nil
}

func freeDataEntry(e dataEntry) {
	if e.destroy != nil {
		e.destroy(e.value)
	}
}

// New allocates a new instance of the type id, with a reference count of 1.
func (r *Registry) New(id TypeID) (Instance, error) {
	c := r.Class(id)
	if c == nil {
		r.sink.Warning(`object`).Uint64(`type`, uint64(id)).Log(`object: new of unknown type id`)
		return nil, fmt.Errorf(`%w: %d`, ErrUnknownType, id)
	}
	return c.New()
}

// NewOf registers def with r (nil meaning Default) if necessary, and
// allocates a new instance, as T.
func NewOf[T Instance](r *Registry, def *TypeDef) (T, error) {
	var zero T
	if r == nil {
		r = Default()
	}
	inst, err := r.New(r.Register(def))
	if err != nil {
		return zero, err
	}
	v, ok := inst.(T)
	if !ok {
		inst.base().Unref()
		return zero, fmt.Errorf(`%w: %s is not %T`, ErrTypeMismatch, def.Name, zero)
	}
	return v, nil
}

// Ref atomically increments the reference count of obj, returning obj.
func Ref[T Instance](obj T) T {
	if o := baseOf(obj); o != nil {
		o.ref()
	}
	return obj
}

// Unref drops a reference to obj, see Object.Unref. A nil obj is ignored.
func Unref(obj Instance) {
	if o := baseOf(obj); o != nil {
		o.Unref()
	}
}

func (x *Object) ref() {
	if n := x.refs.Add(1); n <= 1 {
		x.warn(`object: ref of an object with no references`)
	}
}

// Unref drops a reference. If it was the last, the class's Dispose hook is
// called, which may resurrect the object by taking a new reference, in which
// case destruction stops there. Otherwise Finalize is called, signal handlers
// owned by the object are disconnected, its named data is released, and
// finally Destroy is called.
func (x *Object) Unref() {
	if x == nil {
		return
	}
	for {
		n := x.refs.Load()
		if n <= 0 {
			x.warn(`object: unref of an object with no references`)
			return
		}
		if n == 1 {
			break
		}
		if x.refs.CompareAndSwap(n, n-1) {
			return
		}
	}

	// we hold the last reference
	if !x.state.CompareAndSwap(uint32(StateLive), uint32(StateDisposing)) {
		x.warn(`object: unref of the last reference during dispose`)
		return
	}

	c := x.class
	if c.Dispose != nil {
		c.Dispose(x.self)
	}

	if !x.refs.CompareAndSwap(1, 0) {
		// resurrected by dispose: drop our reference, keep theirs
		x.state.Store(uint32(StateLive))
		x.refs.Add(-1)
		c.registry.sink.Debug(`object`).Str(`type`, c.name).Log(`object: resurrected during dispose`)
		return
	}

	x.state.Store(uint32(StateDead))
	if c.Finalize != nil {
		c.Finalize(x.self)
	}
	x.disconnectAll()
	if x.data != nil {
		x.data.Unref()
		x.data = nil
	}
	if c.Destroy != nil {
		c.Destroy(x.self)
	}
	x.self = nil
}

// RefCount returns the current reference count.
func (x *Object) RefCount() int32 {
	return x.refs.Load()
}

// State returns the destruction state of the object.
func (x *Object) State() ObjectState {
	return ObjectState(x.state.Load())
}

// Class returns the class of the object.
func (x *Object) Class() *Class {
	return x.class
}

// TypeID returns the type id of the object's class.
func (x *Object) TypeID() TypeID {
	return x.class.id
}

// TypeName returns the type name of the object's class.
func (x *Object) TypeName() string {
	return x.class.name
}

// SetData associates value with key, replacing (and releasing) any existing
// value.
func (x *Object) SetData(key string, value any) {
	x.SetDataFull(key, value, nil)
}

// SetDataFull is SetData, with destroy called when the value is replaced,
// removed, or the object is finalized.
func (x *Object) SetDataFull(key string, value any, destroy func(value any)) {
	if !x.alive(`set data`) {
		return
	}
	x.data.Insert(key, dataEntry{value: value, destroy: destroy})
}

// GetData returns the value associated with key.
func (x *Object) GetData(key string) (any, bool) {
	if x.data == nil {
		return nil, false
	}
	e, ok := x.data.Lookup(key)
	return e.value, ok
}

// StealData removes the value associated with key, without calling its
// destroy function.
func (x *Object) StealData(key string) (any, bool) {
	if x.data == nil {
		return nil, false
	}
	e, ok := x.data.Steal(key)
	return e.value, ok
}

// RemoveData removes the value associated with key, calling its destroy
// function, if any.
func (x *Object) RemoveData(key string) bool {
	if x.data == nil {
		return false
	}
	return x.data.Remove(key)
}

func (x *Object) alive(op string) bool {
	if x.class == nil {
		return false
	}
	if x.State() == StateDead {
		x.class.registry.sink.Warning(`object`).
			Str(`type`, x.class.name).
			Str(`op`, op).
			Log(`object: use of a finalized object`)
		return false
	}
	return true
}

func (x *Object) warn(msg string) {
	if x.class == nil {
		return
	}
	x.class.registry.sink.Warning(`object`).
		Str(`type`, x.class.name).
		Int64(`refs`, int64(x.refs.Load())).
		Log(msg)
}

// IsA reports whether obj is an instance of the type id, or a type derived
// from it. If the registry's checks are disabled, IsA returns true for any
// non-nil obj.
func IsA(obj Instance, id TypeID) bool {
	o := baseOf(obj)
	if o == nil || o.class == nil {
		return false
	}
	r := o.class.registry
	if !r.checks {
		return true
	}
	target := r.Class(id)
	return target != nil && o.class.IsA(target)
}

// IsInstanceOf is IsA, registering def with the object's registry if
// necessary.
func IsInstanceOf(obj Instance, def *TypeDef) bool {
	o := baseOf(obj)
	if o == nil || o.class == nil {
		return false
	}
	return IsA(obj, o.class.registry.Register(def))
}

// Cast checks obj is an instance of def, then converts it to T. Failures
// are logged as warnings.
func Cast[T Instance](obj Instance, def *TypeDef) (T, bool) {
	var zero T
	o := baseOf(obj)
	if o == nil || o.class == nil {
		return zero, false
	}
	v, ok := obj.(T)
	if !ok || !IsInstanceOf(obj, def) {
		o.class.registry.sink.Warning(`object`).
			Str(`type`, o.class.name).
			Str(`want`, def.Name).
			Log(`object: invalid cast`)
		return zero, false
	}
	return v, true
}

// TypeName returns the type name of obj, or "" if obj is nil.
func TypeName(obj Instance) string {
	if o := baseOf(obj); o != nil && o.class != nil {
		return o.class.name
	}
	return ``
}
