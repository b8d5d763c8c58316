package lua

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_DoStringAndCall(t *testing.T) {
	s := NewState()
	defer s.Close()

	require.NoError(t, s.DoString(`
		function add(a, b) return a + b end
		function greet(data) return { text = "hi " .. data.name } end
	`))

	assert.True(t, s.HasFunction("add"))
	assert.False(t, s.HasFunction("missing"))

	got, err := s.Call("add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = s.Call("greet", map[string]any{"name": "stage"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hi stage"}, got)

	_, err = s.Call("missing")
	assert.Error(t, err)
}

func TestState_ScriptErrors(t *testing.T) {
	s := NewState()
	defer s.Close()

	assert.Error(t, s.DoString(`this is not lua`))

	require.NoError(t, s.DoString(`function fail() error("boom") end`))
	_, err := s.Call("fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestState_Sandbox(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		assert.False(t, s.HasFunction(name), name)
	}

	require.NoError(t, s.DoString(`local m = require("math"); x = m.floor(2.5)`))
	assert.Error(t, s.DoString(`require("os")`))
	assert.Error(t, s.DoString(`require("io")`))
	assert.Error(t, s.DoString(`os.exit(1)`))
	assert.Error(t, s.DoString(`io.write("x")`))
}

func TestState_Timeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(20 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)

	// The state stays usable after a timeout.
	require.NoError(t, s.DoString(`function one() return 1 end`))
	got, err := s.Call("one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestState_Closed(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.True(t, s.IsClosed())
	assert.ErrorIs(t, s.DoString(`x = 1`), ErrStateClosed)
	_, err := s.Call("x")
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.False(t, s.HasFunction("x"))
}
