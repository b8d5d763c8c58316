package plugin

import (
	"maps"

	"github.com/google/uuid"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/surface"
)

// Base is a data-carrying plugin instance. It renders one surface object
// whose props are the plugin-specific fields of its body.
type Base struct {
	id       string
	manifest *Manifest
	zIndex   int
	data     ecml.PluginBody
	media    map[string]media.Descriptor
	assets   AssetLookup
}

// NewBase is the Factory of data-only plugins. Without an id in data the
// instance gets a fresh uuid; without a z-index it is stacked on top of the
// parent's children.
func NewBase(m *Manifest, data ecml.PluginBody, parent Container) (Instance, error) {
	if m == nil {
		return nil, ErrNilManifest
	}
	return NewBaseInstance(m, data, parent), nil
}

// NewBaseInstance creates a Base for m from data.
func NewBaseInstance(m *Manifest, data ecml.PluginBody, parent Container) *Base {
	b := &Base{
		manifest: m,
		data:     data.Clone(),
		media:    make(map[string]media.Descriptor),
	}

	b.id = data.ID()
	if b.id == "" {
		b.id = uuid.NewString()
	}

	if z, ok := data.ZIndex(); ok {
		b.zIndex = int(z)
	} else if parent != nil {
		b.zIndex = len(parent.Children())
	}

	for _, d := range m.Media {
		b.media[d.ID] = d
	}

	delete(b.data, ecml.FieldID)
	delete(b.data, ecml.FieldVersion)
	delete(b.data, ecml.FieldZIndex)
	return b
}

// ID returns the instance id.
func (b *Base) ID() string { return b.id }

// Manifest returns the plugin manifest.
func (b *Base) Manifest() *Manifest { return b.manifest }

// ZIndex returns the stacking order.
func (b *Base) ZIndex() int { return b.zIndex }

// SetZIndex updates the stacking order.
func (b *Base) SetZIndex(z int) { b.zIndex = z }

// Data returns the plugin-specific fields.
func (b *Base) Data() ecml.PluginBody { return b.data }

// Set stores a plugin-specific field.
func (b *Base) Set(key string, v any) { b.data[key] = v }

// AddMedia records a media dependency of the instance.
func (b *Base) AddMedia(d media.Descriptor) { b.media[d.ID] = d }

// BindAssets sets the lookup used to resolve the assets the body
// references.
func (b *Base) BindAssets(assets AssetLookup) { b.assets = assets }

// Render places the instance's object on s.
func (b *Base) Render(s surface.Surface) {
	props := make(map[string]any, len(b.data))
	maps.Copy(props, b.data)
	s.Add(&surface.Object{ID: b.id, Type: b.manifest.ID, Props: props})
}

// ToDocument returns the body: plugin fields plus id, ver and z-index.
func (b *Base) ToDocument() ecml.PluginBody {
	body := b.data.Clone()
	body[ecml.FieldID] = b.id
	body[ecml.FieldVersion] = b.manifest.Ver
	body[ecml.FieldZIndex] = b.zIndex
	return body
}

// Media returns a copy of the instance's media dependencies plus the
// registered assets its body references. Unregistered references are
// skipped.
func (b *Base) Media() map[string]media.Descriptor {
	out := make(map[string]media.Descriptor, len(b.media))
	maps.Copy(out, b.media)
	if b.assets == nil {
		return out
	}
	for _, id := range b.data.AssetRefs() {
		if d, ok := b.assets.Get(id); ok {
			out[d.ID] = d
		}
	}
	return out
}
