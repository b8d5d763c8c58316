package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stagehand/internal/ecml"
)

func TestBridge_RoundTrip(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 3, int64(3)},
		{"float", 1.5, 1.5},
		{"string", "x", "x"},
		{"list", []any{"a", 2}, []any{"a", int64(2)}},
		{"strings", []string{"a", "b"}, []any{"a", "b"}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
		{"body", ecml.PluginBody{"id": "t1", "z-index": 2.0}, map[string]any{"id": "t1", "z-index": int64(2)}},
		{"bodies", []ecml.PluginBody{{"id": "a"}}, []any{map[string]any{"id": "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToGoValue(ToLuaValue(L, tt.in)))
		})
	}
}

func TestBridge_TablesAndUserData(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	// Sparse integer keys are not a list.
	sparse := L.NewTable()
	sparse.RawSetInt(1, lua.LString("a"))
	sparse.RawSetInt(3, lua.LString("c"))
	assert.Equal(t, map[string]any{"1": "a", "3": "c"}, ToGoValue(sparse))

	// Cycles are cut.
	cyclic := L.NewTable()
	cyclic.RawSetString("self", cyclic)
	assert.Equal(t, map[string]any{"self": nil}, ToGoValue(cyclic))

	type opaque struct{ n int }
	ud := ToLuaValue(L, opaque{n: 1})
	assert.Equal(t, opaque{n: 1}, ToGoValue(ud))

	assert.Nil(t, ToGoValue(L.NewFunction(func(*lua.LState) int { return 0 })))
}
