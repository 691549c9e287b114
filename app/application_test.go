package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/go-objrt/mainloop"
	"github.com/joeycumines/go-objrt/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, options ...Option) *Application {
	t.Helper()
	r, err := object.NewRegistry(object.WithSink(nil))
	require.NoError(t, err)
	a, err := New(append([]Option{WithRegistry(r)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { object.Unref(a) })
	return a
}

func countSignal(t *testing.T, a *Application, name string) *[]any {
	t.Helper()
	var params []any
	_, err := object.Connect(a, name, func(obj object.Instance, param any, _ any) {
		assert.Same(t, a, obj)
		params = append(params, param)
	}, nil)
	require.NoError(t, err)
	return &params
}

func TestNew_defaults(t *testing.T) {
	a := newTestApp(t)
	_, err := uuid.Parse(a.ID())
	assert.NoError(t, err)
	assert.NotEmpty(t, a.Name())
	require.NotNil(t, a.Loop())
	assert.Same(t, a.Registry(), a.Loop().Registry())
	// the startup source
	assert.Equal(t, 1, a.Loop().Len())
	assert.Empty(t, a.Sources())
	assert.True(t, object.IsInstanceOf(a, ApplicationType))
}

func TestNew_configAndID(t *testing.T) {
	checks := false
	cfg := &Config{
		ID:           `cfg-id`,
		Name:         `demo`,
		LogLevel:     `debug`,
		Checks:       &checks,
		IdleInterval: time.Millisecond,
	}
	a, err := New(WithConfig(cfg))
	require.NoError(t, err)
	defer a.Unref()
	assert.Equal(t, `cfg-id`, a.ID())
	assert.Equal(t, `demo`, a.Name())
	assert.False(t, a.Registry().Checks())

	b, err := New(WithConfig(cfg), WithID(`explicit`))
	require.NoError(t, err)
	defer b.Unref()
	assert.Equal(t, `explicit`, b.ID())

	_, err = New(WithConfig(&Config{LogLevel: `loud`}))
	assert.Error(t, err)
}

func TestApplication_Run_activeOnce(t *testing.T) {
	a := newTestApp(t)
	active := countSignal(t, a, SignalActive)
	shutdown := countSignal(t, a, SignalShutdown)
	quit := countSignal(t, a, SignalQuit)

	var n int
	src, err := mainloop.NewIdle(a.Registry(), func(any) bool {
		n++
		return n < 3
	}, nil)
	require.NoError(t, err)
	require.NoError(t, a.TakeSource(src))
	assert.Equal(t, []mainloop.Instance{src}, a.Sources())

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 3, n)
	assert.Equal(t, []any{nil}, *active)
	assert.Equal(t, []any{nil}, *shutdown)
	assert.Empty(t, *quit)
	assert.Equal(t, 0, a.Loop().Len())
}

func TestApplication_Quit(t *testing.T) {
	a := newTestApp(t)
	quit := countSignal(t, a, SignalQuit)
	_, err := object.Connect(a, SignalActive, func(obj object.Instance, _ any, _ any) {
		obj.(*Application).Quit()
	}, nil)
	require.NoError(t, err)

	var n int
	src, err := mainloop.NewIdle(a.Registry(), func(any) bool {
		n++
		return true
	}, nil)
	require.NoError(t, err)
	require.NoError(t, a.TakeSource(src))

	require.NoError(t, a.Run(context.Background()))
	// the cycle quit was called in completes
	assert.Equal(t, 1, n)
	assert.Len(t, *quit, 1)
	assert.Equal(t, 1, a.Loop().Len())
}

func TestApplication_Quit_beforeRun(t *testing.T) {
	a := newTestApp(t)
	active := countSignal(t, a, SignalActive)
	quit := countSignal(t, a, SignalQuit)
	shutdown := countSignal(t, a, SignalShutdown)

	var n int
	src, err := mainloop.NewIdle(a.Registry(), func(any) bool {
		n++
		return true
	}, nil)
	require.NoError(t, err)
	require.NoError(t, a.TakeSource(src))

	a.Quit()
	assert.Len(t, *quit, 1)
	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{nil}, *active)
	assert.Equal(t, []any{nil}, *shutdown)
	assert.Equal(t, 1, a.Loop().Len())
}

func TestApplication_Run_contextCanceled(t *testing.T) {
	a := newTestApp(t)
	shutdown := countSignal(t, a, SignalShutdown)
	ctx, cancel := context.WithCancel(context.Background())
	src, err := mainloop.NewIdle(a.Registry(), func(any) bool {
		cancel()
		return true
	}, nil)
	require.NoError(t, err)
	require.NoError(t, a.TakeSource(src))
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
	require.Len(t, *shutdown, 1)
	assert.ErrorIs(t, (*shutdown)[0].(error), context.Canceled)
}

func TestApplication_TakeSource_error(t *testing.T) {
	a := newTestApp(t)
	src, err := mainloop.NewIdle(a.Registry(), func(any) bool { return false }, nil)
	require.NoError(t, err)
	defer src.Unref()
	_, err = a.Loop().Attach(src)
	require.NoError(t, err)
	assert.ErrorIs(t, a.TakeSource(src), mainloop.ErrAttached)
	assert.Empty(t, a.Sources())
}

func TestApplication_disposeReleasesSources(t *testing.T) {
	r, err := object.NewRegistry(object.WithSink(nil))
	require.NoError(t, err)
	a, err := New(WithRegistry(r))
	require.NoError(t, err)

	var released bool
	src, err := mainloop.NewIdle(r, func(any) bool { return true }, nil)
	require.NoError(t, err)
	src.SetDataFull(`k`, nil, func(any) { released = true })
	require.NoError(t, a.TakeSource(src))
	loop := a.Loop()

	a.Unref()
	assert.True(t, released)
	assert.Nil(t, a.Loop())
	assert.Equal(t, object.StateDead, loop.Object.State())
	assert.ErrorIs(t, a.TakeSource(src), mainloop.ErrLoopFinalized)
	assert.ErrorIs(t, a.Run(context.Background()), mainloop.ErrLoopFinalized)
	a.Quit()
}
