// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-objrt/object"
)

// ChannelSource delivers values posted from any goroutine to a handler on
// the loop goroutine. It is ready whenever values are pending.
type ChannelSource[T any] struct {
	*Source
	ch     chan T
	handle func(value T) bool
}

// ChannelSourceType is the type of the Source underlying a ChannelSource.
var ChannelSourceType = &object.TypeDef{
	Name:   `ChannelSource`,
	Parent: SourceType,
}

// NewChannel allocates a ChannelSource buffering up to capacity values.
// Each dispatch drains the values pending at the time, calling handle for
// each, stopping (and finishing the source) if handle returns false.
func NewChannel[T any](r *object.Registry, capacity int, handle func(value T) bool) (*ChannelSource[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf(`mainloop: invalid channel capacity %d`, capacity)
	}
	if handle == nil {
		return nil, errors.New(`mainloop: nil channel handler`)
	}
	src, err := object.NewOf[*Source](r, ChannelSourceType)
	if err != nil {
		return nil, err
	}
	c := &ChannelSource[T]{
		Source: src,
		ch:     make(chan T, capacity),
		handle: handle,
	}
	src.funcs = Funcs{Check: c.ready}
	src.SetCallback(c.drain, nil)
	return c, nil
}

// Post queues value without blocking, waking the loop the source is
// attached to. Returns false if the buffer is full. Safe for concurrent use.
func (x *ChannelSource[T]) Post(value T) bool {
	select {
	case x.ch <- value:
	default:
		return false
	}
	if l := x.Loop(); l != nil {
		l.Wakeup()
	}
	return true
}

// Pending returns the number of values waiting to be delivered.
func (x *ChannelSource[T]) Pending() int {
	return len(x.ch)
}

func (x *ChannelSource[T]) ready(*Source) bool {
	return len(x.ch) > 0
}

func (x *ChannelSource[T]) drain(any) bool {
	for n := len(x.ch); n > 0; n-- {
		var value T
		select {
		case value = <-x.ch:
		default:
			return true
		}
		if !x.handle(value) {
			return false
		}
	}
	return true
}
