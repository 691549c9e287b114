//go:build linux || darwin

package mainloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFDSource(t *testing.T) {
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	l := newTestLoop(t, WithIdleInterval(5*time.Millisecond))
	var got []byte
	src, err := NewFD(l.Registry(), fds[0], EventRead, func(revents int16) bool {
		assert.NotZero(t, revents&EventRead)
		var buf [16]byte
		n, err := unix.Read(fds[0], buf[:])
		if !assert.NoError(t, err) {
			return false
		}
		got = append(got, buf[:n]...)
		return len(got) < 2
	})
	require.NoError(t, err)
	defer src.Unref()
	assert.Equal(t, fds[0], src.FD())
	_, err = l.Attach(src)
	require.NoError(t, err)

	stepCycle(l)
	assert.Empty(t, got)
	assert.Equal(t, StateCheck, src.State())

	_, err = unix.Write(fds[1], []byte{'a'})
	require.NoError(t, err)
	stepCycle(l)
	assert.Equal(t, []byte{'a'}, got)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = unix.Write(fds[1], []byte{'b'})
	}()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal(`run did not return`)
	}
	assert.Equal(t, []byte{'a', 'b'}, got)
	assert.Equal(t, 0, l.Len())
}

func TestNewFD_invalid(t *testing.T) {
	r := newTestRegistry(t)
	_, err := NewFD(r, -1, EventRead, func(int16) bool { return true })
	assert.ErrorIs(t, err, unix.EBADF)
	_, err = NewFD(r, 0, EventRead, nil)
	assert.Error(t, err)
}
