// Package lua runs script plugins written in Lua.
//
// A plugin bundle whose renderer.main names a ".lua" file is turned into a
// plugin.Factory by the Builder of this package. The script runs once in a
// sandboxed gopher-lua state shared by every instance of the plugin and may
// define any of these global functions, each receiving the instance's
// plugin-specific fields as a table:
//
//	function render(data)   -- props of the surface object
//	function media(data)    -- media descriptors, a list or a table keyed by id
//	function document(data) -- extra fields of the serialized body
//
// Missing functions fall back to the behaviour of plugin.Base. Errors raised
// by a script are logged and also fall back.
//
// # Sandbox
//
// Scripts get the base, table, string and math libraries only. dofile,
// loadfile, load and loadstring are removed and require is limited to the
// built-in safe modules. Every call runs under a timeout.
package lua
