// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/joeycumines/go-objrt/internal/logging"
	"github.com/joeycumines/go-objrt/mainloop"
	"github.com/joeycumines/go-objrt/object"
)

// Signal names.
const (
	SignalActive   = `active`
	SignalQuit     = `quit`
	SignalShutdown = `shutdown`
)

// Application is the instance struct of ApplicationType.
type Application struct {
	object.Object
	loop     *mainloop.MainLoop
	sink     *logging.Sink
	registry *object.Registry
	sources  []mainloop.Instance
	id       string
	name     string
}

// ApplicationType is the type of Application. Disposing an application
// detaches and releases the sources it owns, then its loop.
var ApplicationType = &object.TypeDef{
	Name:     `Application`,
	Instance: (*Application)(nil),
	ClassInit: func(c *object.Class) {
		c.Dispose = func(obj object.Instance) {
			obj.(*Application).dispose()
		}
		c.NewSignal(SignalActive, false)
		c.NewSignal(SignalQuit, false)
		c.NewSignal(SignalShutdown, true)
	},
}

// New allocates an Application, and its loop, with the startup source that
// emits "active" attached. The caller owns the returned reference.
func New(options ...Option) (*Application, error) {
	opts, err := resolveAppOptions(options)
	if err != nil {
		return nil, err
	}
	cfg := opts.config

	logger := opts.logger
	if logger == nil && cfg.LogLevel != `` {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logger = logging.NewDefault(os.Stderr, level)
	}

	registry := opts.registry
	if registry == nil {
		registry, err = object.NewRegistry(
			object.WithLogger(logger),
			object.WithChecks(cfg.checks()),
		)
		if err != nil {
			return nil, err
		}
	}

	a, err := object.NewOf[*Application](registry, ApplicationType)
	if err != nil {
		return nil, err
	}
	a.registry = registry
	if logger != nil {
		a.sink = logging.New(logger, nil)
	} else {
		a.sink = registry.Sink()
	}

	a.id = opts.id
	if a.id == `` {
		a.id = cfg.ID
	}
	if a.id == `` {
		a.id = uuid.NewString()
	}
	a.name = cfg.Name
	if a.name == `` {
		a.name = defaultName()
	}

	loopOptions := []mainloop.LoopOption{
		mainloop.WithRegistry(registry),
		mainloop.WithIdleInterval(cfg.IdleInterval),
	}
	if logger != nil {
		loopOptions = append(loopOptions, mainloop.WithLogger(logger))
	}
	if a.loop, err = mainloop.New(loopOptions...); err != nil {
		a.Unref()
		return nil, err
	}

	startup, err := mainloop.NewIdle(registry, a.activate, nil)
	if err != nil {
		a.Unref()
		return nil, err
	}
	startup.SetName(`app-startup`)
	_, err = a.loop.Attach(startup)
	// owned by the loop from here
	startup.Unref()
	if err != nil {
		a.Unref()
		return nil, err
	}

	a.sink.Debug(`app`).
		Str(`id`, a.id).
		Str(`name`, a.name).
		Log(`app: created application`)

	return a, nil
}

func defaultName() string {
	if len(os.Args) != 0 {
		if name := filepath.Base(os.Args[0]); name != `.` && name != string(filepath.Separator) {
			return name
		}
	}
	return `app`
}

// activate is the callback of the startup source.
func (a *Application) activate(any) bool {
	a.emit(SignalActive, nil)
	return false
}

func (a *Application) emit(name string, param any) {
	if err := object.Emit(a, name, param); err != nil {
		a.sink.Warning(`app`).Err(err).Str(`signal`, name).Log(`app: emit failed`)
	}
}

// ID returns the application id.
func (a *Application) ID() string { return a.id }

// Name returns the application name.
func (a *Application) Name() string { return a.name }

// Loop returns the application's loop, or nil once disposed.
func (a *Application) Loop() *mainloop.MainLoop { return a.loop }

// Registry returns the registry the application was allocated from.
func (a *Application) Registry() *object.Registry { return a.registry }

// Sources returns the sources owned by the application.
func (a *Application) Sources() []mainloop.Instance {
	return slices.Clone(a.sources)
}

// TakeSource attaches src to the application's loop, transferring ownership
// of the caller's reference to the application. On error, the caller
// retains ownership.
func (a *Application) TakeSource(src mainloop.Instance) error {
	if a.loop == nil {
		return mainloop.ErrLoopFinalized
	}
	if _, err := a.loop.Attach(src); err != nil {
		return err
	}
	a.sources = append(a.sources, src)
	return nil
}

// Run runs the loop, see mainloop.MainLoop.Run, then emits "shutdown" with
// the result.
func (a *Application) Run(ctx context.Context) error {
	if a.loop == nil {
		return mainloop.ErrLoopFinalized
	}
	object.Ref(a)
	defer object.Unref(a)
	err := a.loop.Run(ctx)
	a.emit(SignalShutdown, err)
	return err
}

// Quit emits "quit", then stops the loop at the end of its current cycle.
// Quit should be called from the loop goroutine, e.g. from a source or
// signal handler. Called before Run, the quit stays pending, and Run returns
// after its first cycle, having emitted "active".
func (a *Application) Quit() {
	if a.loop == nil {
		return
	}
	a.emit(SignalQuit, nil)
	a.loop.Quit()
}

func (a *Application) dispose() {
	sources := a.sources
	a.sources = nil
	for _, src := range sources {
		if a.loop != nil {
			a.loop.Detach(src)
		}
		object.Unref(src)
	}
	if a.loop != nil {
		a.loop.Unref()
		a.loop = nil
	}
}
