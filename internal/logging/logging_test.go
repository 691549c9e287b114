package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_nilSafe(t *testing.T) {
	var s *Sink
	assert.Nil(t, s.Logger())
	assert.Nil(t, s.Warning(`x`))
	assert.Nil(t, s.Err(`x`))
	assert.Nil(t, s.Debug(`x`))
	// nil builders are no-ops
	s.Warning(`x`).Str(`k`, `v`).Log(`ignored`)
}

func TestSink_Warning_throttled(t *testing.T) {
	var buf bytes.Buffer
	s := New(NewDefault(&buf, logiface.LevelWarning), map[time.Duration]int{time.Hour: 2})
	for i := 0; i < 5; i++ {
		s.Warning(`unref`).Int(`i`, i).Log(`refcount underflow`)
	}
	s.Warning(`other`).Log(`different category`)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, buf.String())
	assert.Contains(t, lines[0], `"category":"unref"`)
	assert.Contains(t, lines[0], `"msg":"refcount underflow"`)
	assert.Contains(t, lines[2], `"category":"other"`)
}

func TestSink_Debug_levelFiltered(t *testing.T) {
	var buf bytes.Buffer
	s := New(NewDefault(&buf, logiface.LevelWarning), nil)
	s.Debug(`trace`).Log(`hidden`)
	assert.Empty(t, buf.String())

	buf.Reset()
	s = New(NewDefault(&buf, logiface.LevelDebug), nil)
	s.Debug(`trace`).Log(`shown`)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want logiface.Level
		ok   bool
	}{
		{`warning`, logiface.LevelWarning, true},
		{`WARN`, logiface.LevelWarning, true},
		{` err `, logiface.LevelError, true},
		{`error`, logiface.LevelError, true},
		{`debug`, logiface.LevelDebug, true},
		{`trace`, logiface.LevelTrace, true},
		{`disabled`, logiface.LevelDisabled, true},
		{`info`, logiface.LevelInformational, true},
		{`loud`, 0, false},
	} {
		got, ok := ParseLevel(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
