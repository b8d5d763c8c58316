package lua

import (
	"fmt"
	"maps"
	"os"
	"path"
	"sort"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/surface"
)

// Script hook names.
const (
	FuncRender   = "render"
	FuncMedia    = "media"
	FuncDocument = "document"
)

// Extension is the renderer entry point extension handled by this package.
const Extension = ".lua"

// BuilderOption configures a Builder.
type BuilderOption func(*builder)

type builder struct {
	stateOpts []StateOption
	log       *logging.Logger
}

// WithStateOptions sets the options of every script state.
func WithStateOptions(opts ...StateOption) BuilderOption {
	return func(b *builder) {
		b.stateOpts = append(b.stateOpts, opts...)
	}
}

// WithLogger sets the logger script errors are reported to.
func WithLogger(l *logging.Logger) BuilderOption {
	return func(b *builder) {
		b.log = l
	}
}

// NewBuilder returns a plugin.Builder for bundles with a Lua entry point.
// The script is executed once when the bundle is built.
func NewBuilder(opts ...BuilderOption) plugin.Builder {
	b := &builder{log: logging.Null()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("lua")

	return func(m *plugin.Manifest) (plugin.Factory, error) {
		if !m.HasRenderer() || path.Ext(m.Renderer.Main) != Extension {
			return nil, fmt.Errorf("%w: %s", ErrNotAScript, m.ID)
		}
		code, err := os.ReadFile(m.MainPath())
		if err != nil {
			return nil, fmt.Errorf("read script of %s: %w", m.ID, err)
		}
		return NewFactory(m.ID, string(code), b.log, b.stateOpts...)
	}
}

// NewFactory runs code in a fresh state and returns a Factory creating
// Script instances backed by it. name labels errors.
func NewFactory(name, code string, log *logging.Logger, opts ...StateOption) (plugin.Factory, error) {
	state := NewState(opts...)
	if err := state.DoString(code); err != nil {
		_ = state.Close()
		return nil, fmt.Errorf("run script of %s: %w", name, err)
	}
	if log == nil {
		log = logging.Null()
	}

	return func(m *plugin.Manifest, data ecml.PluginBody, parent plugin.Container) (plugin.Instance, error) {
		return &Script{
			Base:  plugin.NewBaseInstance(m, data, parent),
			state: state,
			log:   log.WithField("plugin", m.ID),
		}, nil
	}, nil
}

// Script is a plugin instance whose rendering, media and serialized body
// are customised by Lua hooks.
type Script struct {
	*plugin.Base
	state *State
	log   *logging.Logger
}

// Render places the instance's object on s using the props returned by the
// render hook.
func (s *Script) Render(surf surface.Surface) {
	props, ok := s.callTable(FuncRender)
	if !ok {
		s.Base.Render(surf)
		return
	}
	surf.Add(&surface.Object{ID: s.ID(), Type: s.Manifest().ID, Props: props})
}

// ToDocument returns the base body overlaid with the document hook's
// fields. id, ver and z-index cannot be overridden.
func (s *Script) ToDocument() ecml.PluginBody {
	body := s.Base.ToDocument()
	extra, ok := s.callTable(FuncDocument)
	if !ok {
		return body
	}
	for k, v := range extra {
		switch k {
		case ecml.FieldID, ecml.FieldVersion, ecml.FieldZIndex:
			continue
		}
		body[k] = v
	}
	return body
}

// Media returns the base media plus the descriptors returned by the media
// hook.
func (s *Script) Media() map[string]media.Descriptor {
	out := s.Base.Media()
	if !s.state.HasFunction(FuncMedia) {
		return out
	}
	result, err := s.state.Call(FuncMedia, map[string]any(s.Data()))
	if err != nil {
		s.log.Warn("media hook failed: %v", err)
		return out
	}
	maps.Copy(out, descriptors(result))
	return out
}

func (s *Script) callTable(fn string) (map[string]any, bool) {
	if !s.state.HasFunction(fn) {
		return nil, false
	}
	result, err := s.state.Call(fn, map[string]any(s.Data()))
	if err != nil {
		s.log.Warn("%s hook failed: %v", fn, err)
		return nil, false
	}
	m, ok := result.(map[string]any)
	if !ok {
		if result != nil {
			s.log.Warn("%s hook returned %T, want table", fn, result)
		}
		return nil, false
	}
	return m, true
}

// descriptors reads media descriptors from a hook result: a list of
// descriptor tables or a table of descriptor tables keyed by media id.
func descriptors(v any) map[string]media.Descriptor {
	out := make(map[string]media.Descriptor)
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if d, ok := descriptor("", item); ok {
				out[d.ID] = d
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if d, ok := descriptor(k, items[k]); ok {
				out[d.ID] = d
			}
		}
	}
	return out
}

func descriptor(key string, v any) (media.Descriptor, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return media.Descriptor{}, false
	}
	str := func(field string) string {
		s, _ := m[field].(string)
		return s
	}
	d := media.Descriptor{
		ID:      str("id"),
		Ver:     str("ver"),
		Src:     str("src"),
		Type:    str("type"),
		AssetID: str("assetId"),
	}
	if d.ID == "" {
		d.ID = key
	}
	return d, d.ID != ""
}
