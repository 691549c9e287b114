//go:build linux || darwin

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"

	"github.com/joeycumines/go-objrt/object"
	"golang.org/x/sys/unix"
)

// Poll events, for NewFD.
const (
	EventRead  int16 = unix.POLLIN
	EventWrite int16 = unix.POLLOUT
	EventError int16 = unix.POLLERR
	EventHup   int16 = unix.POLLHUP
)

// FDSource is ready when its file descriptor is, checked by a non-blocking
// poll each cycle. The descriptor is not owned by the source.
type FDSource struct {
	Source
	handle  func(revents int16) bool
	fd      int
	events  int16
	revents int16
}

// FDSourceType is the type of FDSource.
var FDSourceType = &object.TypeDef{
	Name:     `FDSource`,
	Parent:   SourceType,
	Instance: (*FDSource)(nil),
}

// NewFD allocates an FDSource, dispatching handle with the returned events,
// whenever fd is ready for any of events.
func NewFD(r *object.Registry, fd int, events int16, handle func(revents int16) bool) (*FDSource, error) {
	if fd < 0 {
		return nil, unix.EBADF
	}
	if handle == nil {
		return nil, errors.New(`mainloop: nil fd handler`)
	}
	f, err := object.NewOf[*FDSource](r, FDSourceType)
	if err != nil {
		return nil, err
	}
	f.fd = fd
	f.events = events
	f.handle = handle
	f.funcs = Funcs{Check: f.checkHook}
	f.SetCallback(f.dispatch, nil)
	return f, nil
}

// FD returns the file descriptor.
func (x *FDSource) FD() int {
	return x.fd
}

func (x *FDSource) checkHook(*Source) bool {
	fds := []unix.PollFd{{Fd: int32(x.fd), Events: x.events}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		if err != unix.EINTR {
			x.Class().Registry().Sink().Err(`mainloop`).
				Err(err).
				Int64(`fd`, int64(x.fd)).
				Log(`mainloop: poll failed`)
		}
		return false
	}
	if n == 0 {
		return false
	}
	x.revents = fds[0].Revents
	return true
}

func (x *FDSource) dispatch(any) bool {
	revents := x.revents
	x.revents = 0
	return x.handle(revents)
}
