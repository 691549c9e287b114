// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"reflect"
	"sync/atomic"

	"github.com/joeycumines/go-objrt/hashtable"
)

// Class is the runtime descriptor of a registered type. The hook fields form
// the class's vtable: they are copied from the parent on registration, and
// may be overridden by the TypeDef's ClassInit. Hooks must not be modified
// after ClassInit returns.
type Class struct {
	// Constructor allocates a new instance. If nil, a zeroed instance of the
	// TypeDef's Instance struct is allocated.
	Constructor func(c *Class) Instance

	// Dispose is the first destruction hook. It may resurrect the object, by
	// taking a new reference.
	Dispose func(obj Instance)

	// Finalize is the second destruction hook, only called if the object was
	// not resurrected by Dispose.
	Finalize func(obj Instance)

	// Destroy releases whatever Constructor allocated, after Finalize and the
	// release of the object's data and signal handlers.
	Destroy func(obj Instance)

	registry *Registry
	parent   *Class
	signals  *hashtable.Table[string, *Signal]
	instType reflect.Type
	name     string
	size     uintptr
	id       TypeID
	ready    atomic.Bool
}

// ID returns the type id of the class.
func (c *Class) ID() TypeID { return c.id }

// Name returns the type name of the class.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class, or nil for the root.
func (c *Class) Parent() *Class { return c.parent }

// Size returns the size of the class's instance struct.
func (c *Class) Size() uintptr { return c.size }

// Registry returns the registry the class belongs to.
func (c *Class) Registry() *Registry { return c.registry }

// IsA reports whether c is other, or derives from it.
func (c *Class) IsA(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// New allocates a new instance of the class, with a reference count of 1.
func (c *Class) New() (Instance, error) {
	var inst Instance
	if c.Constructor != nil {
		inst = c.Constructor(c)
	} else {
		inst = reflect.New(c.instType.Elem()).Interface().(Instance)
	}
	o := baseOf(inst)
	if o == nil {
		c.registry.sink.Warning(`object`).Str(`type`, c.name).Log(`object: constructor returned nil`)
		return nil, ErrConstructor
	}
	if c.registry.checks {
		if t := reflect.TypeOf(inst); t != c.instType {
			c.registry.sink.Warning(`object`).
				Str(`type`, c.name).
				Stringer(`got`, t).
				Log(`object: constructor returned the wrong instance type`)
			return nil, ErrTypeMismatch
		}
	}
	if err := o.init(c, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// NewSignal declares a signal on the class, typically from ClassInit. If hasParam
// is false, emissions carry no parameter. Declaring the same name twice on one
// class returns the existing signal.
func (c *Class) NewSignal(name string, hasParam bool) *Signal {
	if s, ok := c.signals.Peek(name); ok {
		c.registry.sink.Warning(`signal`).
			Str(`type`, c.name).
			Str(`signal`, name).
			Log(`object: signal already declared`)
		return s
	}
	s := &Signal{
		class:    c,
		name:     name,
		hasParam: hasParam,
	}
	c.signals.Insert(name, s)
	return s
}

// LookupSignal finds the named signal, declared by c or any ancestor.
func (c *Class) LookupSignal(name string) *Signal {
	for k := c; k != nil; k = k.parent {
		if s, ok := k.signals.Peek(name); ok {
			return s
		}
	}
	return nil
}

// Signals returns the names of the signals declared directly by c.
func (c *Class) Signals() []string {
	names := make([]string, 0, c.signals.Len())
	for name := range c.signals.All() {
		names = append(names, name)
	}
	return names
}
