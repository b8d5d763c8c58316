// Package stage implements the scene graph of the editor: stages holding
// plugin instances, the Manager owning the ordered stages and the single
// drawing surface, and the conversion between the scene graph and a
// persisted document.
//
// # Selection
//
// Exactly one stage is bound to the shared surface at a time. Switching
// stages clears the surface and renders the incoming stage from scratch;
// while it renders, the surface's object:added listener is detached so the
// re-rendered children do not surface as newly added objects.
//
// # Event Bridge
//
// Raw surface events are republished on the event bus as object:<kind> and,
// when the target's plugin type is known, as <type>:<kind>. A cleared
// selection has no target and yields object:unselected only.
//
// # Documents
//
// ToDocument walks the stages once. Navigation params are recomputed from
// the stage order, children are grouped under their plugin key, media are
// deduplicated by id and non-core plugins with a renderer are listed in the
// manifest once. FromDocument requests plugin and asset loads first, then
// rebuilds every stage on a private load surface, instantiating plugins in
// ascending z-index. The first stage to finish loading activates the event
// bridge and is selected.
package stage
