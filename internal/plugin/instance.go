package plugin

import (
	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/surface"
)

// Instance is a renderable, serializable unit placed on a stage.
type Instance interface {
	// ID returns the instance id, unique within a document.
	ID() string

	// Manifest returns the manifest of the instance's plugin.
	Manifest() *Manifest

	// ZIndex returns the stacking order within the parent.
	ZIndex() int

	// SetZIndex updates the stacking order.
	SetZIndex(z int)

	// Render draws the instance onto s.
	Render(s surface.Surface)

	// ToDocument returns the serialized body of the instance.
	ToDocument() ecml.PluginBody

	// Media returns the media the instance depends on, keyed by media id.
	Media() map[string]media.Descriptor
}

// Container is an instance owning child instances.
type Container interface {
	Instance

	// AddChild appends child to the container.
	AddChild(child Instance)

	// Children returns the children in insertion order.
	Children() []Instance
}

// Factory creates an instance of the plugin described by m from its
// serialized body. The parent is nil for top-level instances.
type Factory func(m *Manifest, data ecml.PluginBody, parent Container) (Instance, error)
