// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/joeycumines/go-objrt/hashtable"
	"github.com/joeycumines/go-objrt/internal/logging"
)

// maxTypeDepth bounds the parent chain of a TypeDef, catching cycles before
// they deadlock registration.
const maxTypeDepth = 256

type (
	// TypeID identifies a registered class within a Registry. Ids are
	// assigned in registration order, and are stable for the lifetime of the
	// registry.
	TypeID uint32

	// TypeDef describes a type, see the package docs.
	TypeDef struct {
		// Parent is the type to derive from, defaulting to ObjectType.
		Parent *TypeDef

		// Instance is a typed nil pointer to the instance struct, e.g.
		// (*Widget)(nil), used to size the class, and to allocate instances
		// if the class has no Constructor. Defaults to the parent's.
		Instance Instance

		// ClassInit is called exactly once per registry, after the class has
		// been populated from its parent, and before it is first used.
		ClassInit func(c *Class)

		// Name must be unique within a registry.
		Name string
	}

	// Registry is an append-only set of classes, and the context that
	// instances of those classes report through.
	Registry struct {
		// Prevent copying
		_ [0]func()

		sink    *logging.Sink
		byName  *hashtable.Table[string, TypeID]
		classes []*Class
		onces   sync.Map // *TypeDef -> *registration
		mu      sync.RWMutex
		checks  bool
	}

	registration struct {
		once sync.Once
		id   TypeID
		ok   bool
	}
)

// ObjectType is the root type, which every other type derives from.
var ObjectType = &TypeDef{
	Name:     `Object`,
	Instance: (*Object)(nil),
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the lazily initialized process-wide registry, used by
// TypeDef.ID, and where a nil *Registry is accepted.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry constructs a Registry, with ObjectType registered as id 0.
func NewRegistry(options ...RegistryOption) (*Registry, error) {
	cfg, err := resolveRegistryOptions(options)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		sink:   cfg.sink,
		checks: cfg.checks,
	}
	r.byName, err = hashtable.New[string, TypeID](hashtable.String, nil, hashtable.WithSink(cfg.sink))
	if err != nil {
		return nil, err
	}
	if id := r.Register(ObjectType); id != 0 {
		panic(fmt.Sprintf(`object: root type registered with id %d`, id))
	}
	return r, nil
}

// ID registers d with the Default registry (if necessary), returning its id.
func (d *TypeDef) ID() TypeID {
	return Default().Register(d)
}

// Register returns the id of def, registering it (and its ancestors) on the
// first call. Invalid definitions, e.g. an instance struct that doesn't
// embed its parent's, cause a panic.
func (r *Registry) Register(def *TypeDef) TypeID {
	if def == nil {
		panic(`object: register of nil type def`)
	}
	v, _ := r.onces.LoadOrStore(def, new(registration))
	reg := v.(*registration)
	reg.once.Do(func() {
		reg.id = r.register(def)
		reg.ok = true
	})
	if !reg.ok {
		panic(fmt.Sprintf(`object: type %q failed to register`, def.Name))
	}
	return reg.id
}

func (r *Registry) register(def *TypeDef) TypeID {
	if def.Name == `` {
		panic(`object: type def has no name`)
	}

	var parent *Class
	if def != ObjectType {
		parentDef := def.Parent
		if parentDef == nil {
			parentDef = ObjectType
		}
		for p, depth := parentDef, 0; p != nil; p, depth = p.Parent, depth+1 {
			if p == def || depth >= maxTypeDepth {
				panic(fmt.Sprintf(`object: type %q has a cyclic parent chain`, def.Name))
			}
		}
		parent = r.Class(r.Register(parentDef))
		if parent == nil {
			panic(fmt.Sprintf(`object: type %q has an unknown parent`, def.Name))
		}
	}

	instType := layoutOf(def, parent)

	c := &Class{
		registry: r,
		parent:   parent,
		name:     def.Name,
		instType: instType,
		size:     instType.Elem().Size(),
	}
	if parent != nil {
		// start from the parent's vtable
		c.Constructor = parent.Constructor
		c.Destroy = parent.Destroy
		c.Dispose = parent.Dispose
		c.Finalize = parent.Finalize
		if instType != parent.instType {
			// the parent's constructor cannot produce this layout
			c.Constructor = nil
		}
	}

	var err error
	c.signals, err = hashtable.New[string, *Signal](hashtable.String, nil, hashtable.WithSink(r.sink))
	if err != nil {
		panic(err)
	}

	// the name is claimed with the id, and resolves once ClassInit returns
	r.mu.Lock()
	if r.byName.Contains(def.Name) {
		r.mu.Unlock()
		panic(fmt.Sprintf(`object: duplicate type name %q`, def.Name))
	}
	c.id = TypeID(len(r.classes))
	r.classes = append(r.classes, c)
	r.byName.Insert(def.Name, c.id)
	r.mu.Unlock()

	if def.ClassInit != nil {
		def.ClassInit(c)
	}
	c.ready.Store(true)

	r.sink.Debug(`object`).
		Str(`type`, c.name).
		Uint64(`id`, uint64(c.id)).
		Log(`object: registered type`)

	return c.id
}

// layoutOf resolves the instance type of def, enforcing that it is a pointer
// to a struct, prefixed by (embedding, as the first field) the parent's.
func layoutOf(def *TypeDef, parent *Class) reflect.Type {
	if def.Instance == nil {
		if parent == nil {
			panic(fmt.Sprintf(`object: root type %q has no instance`, def.Name))
		}
		return parent.instType
	}
	t := reflect.TypeOf(def.Instance)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf(`object: type %q instance must be a pointer to a struct, got %s`, def.Name, t))
	}
	if parent == nil || t == parent.instType {
		return t
	}
	e := t.Elem()
	if e.NumField() == 0 || !e.Field(0).Anonymous || e.Field(0).Type != parent.instType.Elem() {
		panic(fmt.Sprintf(`object: type %q instance %s must embed %s as its first field`, def.Name, e, parent.instType.Elem()))
	}
	if e.Size() < parent.size {
		panic(fmt.Sprintf(`object: type %q instance is smaller than its parent`, def.Name))
	}
	return t
}

// Class returns the class for id, or nil if it is not registered.
func (r *Registry) Class(id TypeID) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) < len(r.classes) {
		return r.classes[id]
	}
	return nil
}

// Lookup returns the id of the type registered under name. Types still
// running their ClassInit are not found.
func (r *Registry) Lookup(name string) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName.Peek(name)
	if !ok || !r.classes[id].ready.Load() {
		return 0, false
	}
	return id, true
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Checks reports whether guard checks are enabled, see WithChecks.
func (r *Registry) Checks() bool {
	return r.checks
}

// Logger returns the logger used by the registry, which may be nil.
func (r *Registry) Logger() *logging.Logger {
	return r.sink.Logger()
}

// Sink exposes the registry's logging sink, for sibling packages.
func (r *Registry) Sink() *logging.Sink {
	return r.sink
}
