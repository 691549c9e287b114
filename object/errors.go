// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package object

import (
	"errors"
)

// Standard errors.
var (
	// ErrUnknownType is returned when a type id is not registered.
	ErrUnknownType = errors.New(`object: unknown type id`)

	// ErrTypeMismatch is returned when an instance is not of the expected type.
	ErrTypeMismatch = errors.New(`object: type mismatch`)

	// ErrNilInstance is returned when a nil instance is provided.
	ErrNilInstance = errors.New(`object: nil instance`)

	// ErrDeadObject is returned for operations on an object that has been
	// finalized.
	ErrDeadObject = errors.New(`object: object has been finalized`)

	// ErrUnknownSignal is returned when a signal name is not declared by the
	// class of an object, or any of its ancestors.
	ErrUnknownSignal = errors.New(`object: unknown signal`)

	// ErrNilHandler is returned when connecting a nil handler.
	ErrNilHandler = errors.New(`object: nil handler`)

	// ErrConstructor is returned when a class's Constructor hook returns nil.
	ErrConstructor = errors.New(`object: constructor returned nil`)
)
