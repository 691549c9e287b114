// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package object implements a small object runtime: a lazily populated type
// registry with single inheritance, atomically reference counted instances
// with a two-phase (dispose, then finalize) destruction protocol, per-object
// named data, and per-class named signals.
//
// # Types
//
// A type is described by a [TypeDef], normally a package level variable. The
// first call to [Registry.Register] (or [TypeDef.ID], for the [Default]
// registry) builds the [Class]: it starts as a copy of the parent class, so
// hooks default to the parent's, then the TypeDef's ClassInit may override
// hooks and declare signals. Registration happens exactly once per registry,
// and ids are assigned in registration order, the root type [ObjectType]
// always being 0.
//
// Instance structs must embed their parent's instance struct as their first
// field, e.g.
//
//	type Widget struct {
//		object.Object
//		label string
//	}
//
//	var WidgetType = &object.TypeDef{
//		Name:     `Widget`,
//		Instance: (*Widget)(nil),
//		ClassInit: func(c *object.Class) {
//			parent := c.Finalize
//			c.Finalize = func(obj object.Instance) {
//				obj.(*Widget).label = ``
//				if parent != nil {
//					parent(obj)
//				}
//			}
//			c.NewSignal(`clicked`, false)
//		},
//	}
//
// # Lifecycle
//
// Instances start with a reference count of 1. Dropping the last reference
// runs the class's Dispose hook, which may take a new reference (resurrecting
// the object, aborting destruction). Otherwise Finalize runs, the object's
// signal handlers and named data are released, and finally Destroy runs.
//
// # Thread Safety
//
// Reference counts are atomic, and registration is safe for concurrent use.
// An object's named data, and signal emission, are intended for use by the
// goroutine that owns the object.
package object
