// Package surface defines the drawing-surface contract the stage manager binds
// stages to, and Canvas, an in-memory surface.
//
// A surface holds the visual objects of the stage currently bound to it and
// emits raw events when they change:
//
//	object:added       an object was added
//	object:removed     an object was removed
//	object:modified    an object's properties changed
//	object:selected    an object became the active selection
//	selection:cleared  the selection was cleared (no target)
//	canvas:cleared     every object was dropped by Clear
//
// Handlers registered with On run synchronously inside the mutating call.
package surface
