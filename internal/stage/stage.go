package stage

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/surface"
)

// PluginID is the id of the reserved stage plugin.
const PluginID = "org.ekstep.stage"

// Navigation param names.
const (
	ParamPrevious = ecml.FieldPrevious
	ParamNext     = ecml.FieldNext
)

// Scheduler runs fn once after d unless the returned stop function is called
// first. fn must run on the goroutine that owns the scene.
type Scheduler func(d time.Duration, fn func()) (stop func())

// Registrar accepts plugin registrations.
type Registrar interface {
	Register(m *plugin.Manifest, f plugin.Factory) error
}

// Manifest returns the manifest of the stage plugin.
func Manifest() *plugin.Manifest {
	return &plugin.Manifest{ID: PluginID, Ver: "1.0"}
}

// Register registers the stage plugin with r.
func Register(r Registrar) error {
	return r.Register(Manifest(), Factory)
}

// Factory creates a Stage from the scalar fields of a stage body. String
// previous and next fields become navigation params, everything else is
// kept as stage metadata.
func Factory(m *plugin.Manifest, data ecml.PluginBody, _ plugin.Container) (plugin.Instance, error) {
	st := newStage(m, data.ID())

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := data[k]
		switch k {
		case ecml.FieldID:
			continue
		case ecml.FieldZIndex:
			if z, ok := data.ZIndex(); ok {
				st.zIndex = int(z)
			}
			continue
		case ParamPrevious, ParamNext:
			if s, ok := v.(string); ok {
				st.params[k] = s
				continue
			}
		}
		st.attrs.Set(k, v)
	}
	return st, nil
}

// Stage is one scene: an ordered list of plugin instances drawn together on
// a surface, plus navigation params and metadata.
type Stage struct {
	id       string
	manifest *plugin.Manifest
	zIndex   int
	children []plugin.Instance
	params   map[string]string
	attrs    *ecml.StageBody
	selected bool
	surface  surface.Surface

	loadTimeout time.Duration
	schedule    Scheduler
	log         *logging.Logger
}

// New creates an empty stage. An empty id gets a fresh uuid.
func New(id string) *Stage {
	return newStage(Manifest(), id)
}

func newStage(m *plugin.Manifest, id string) *Stage {
	if id == "" {
		id = uuid.NewString()
	}
	return &Stage{
		id:       id,
		manifest: m,
		params:   make(map[string]string),
		attrs:    &ecml.StageBody{},
		log:      logging.Null(),
	}
}

// ID returns the stage id.
func (s *Stage) ID() string { return s.id }

// Manifest returns the stage plugin manifest.
func (s *Stage) Manifest() *plugin.Manifest { return s.manifest }

// ZIndex returns the stacking order of the stage.
func (s *Stage) ZIndex() int { return s.zIndex }

// SetZIndex updates the stacking order of the stage.
func (s *Stage) SetZIndex(z int) { s.zIndex = z }

// IsSelected reports whether the stage is the current stage.
func (s *Stage) IsSelected() bool { return s.selected }

// AddChild appends child and draws it when the stage is bound to a surface.
func (s *Stage) AddChild(child plugin.Instance) {
	s.children = append(s.children, child)
	if s.surface != nil {
		child.Render(s.surface)
	}
}

// Children returns the children in insertion order.
func (s *Stage) Children() []plugin.Instance {
	out := make([]plugin.Instance, len(s.children))
	copy(out, s.children)
	return out
}

// SetSurface binds the stage to surf. A nil surf unbinds it.
func (s *Stage) SetSurface(surf surface.Surface) { s.surface = surf }

// Surface returns the bound surface, or nil.
func (s *Stage) Surface() surface.Surface { return s.surface }

// Render draws every child onto surf in insertion order.
func (s *Stage) Render(surf surface.Surface) {
	for _, child := range s.children {
		child.Render(surf)
	}
}

// AddParam sets a navigation param.
func (s *Stage) AddParam(key, value string) { s.params[key] = value }

// Param returns a navigation param.
func (s *Stage) Param(key string) (string, bool) {
	v, ok := s.params[key]
	return v, ok
}

// RemoveParam deletes a navigation param.
func (s *Stage) RemoveParam(key string) { delete(s.params, key) }

// Params returns a copy of the navigation params.
func (s *Stage) Params() map[string]string {
	out := make(map[string]string, len(s.params))
	maps.Copy(out, s.params)
	return out
}

// SetAttr sets a metadata field.
func (s *Stage) SetAttr(key string, v any) { s.attrs.Set(key, v) }

// Attr returns a metadata field.
func (s *Stage) Attr(key string) (any, bool) { return s.attrs.Get(key) }

// Body returns the serialized stage without its children: the id, the
// metadata fields in order, then previous, next and any other params.
func (s *Stage) Body() *ecml.StageBody {
	body := ecml.NewStageBody(s.id)
	for _, k := range s.attrs.Keys() {
		v, _ := s.attrs.Get(k)
		body.Set(k, v)
	}
	for _, k := range s.paramKeys() {
		body.Set(k, s.params[k])
	}
	return body
}

// ToDocument returns the scalar fields of the stage.
func (s *Stage) ToDocument() ecml.PluginBody {
	out := ecml.PluginBody{ecml.FieldID: s.id}
	for _, k := range s.attrs.Keys() {
		out[k], _ = s.attrs.Get(k)
	}
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

// Media returns nothing; the media of a stage are those of its children.
func (s *Stage) Media() map[string]media.Descriptor {
	return map[string]media.Descriptor{}
}

// DestroyOnLoad calls done once load holds count objects: at once when it
// already does, otherwise on the object:added event that reaches count, or
// when the load timeout expires first. Afterwards the load surface is
// cleared, its object:added listeners are removed and the stage is unbound
// from it. done runs exactly once.
func (s *Stage) DestroyOnLoad(count int, load surface.Surface, done func()) {
	var (
		once sync.Once
		stop func()
	)
	finish := func(timedOut bool) {
		once.Do(func() {
			if stop != nil {
				stop()
			}
			if timedOut {
				s.log.Warn("stage %s loaded %d of %d objects before timeout", s.id, load.Len(), count)
			}
			load.Off(surface.EventObjectAdded)
			load.Clear()
			if s.surface == load {
				s.surface = nil
			}
			if done != nil {
				done()
			}
		})
	}

	if load.Len() >= count {
		finish(false)
		return
	}

	load.On(surface.EventObjectAdded, func(surface.Event) {
		if load.Len() >= count {
			finish(false)
		}
	})
	if s.schedule != nil && s.loadTimeout > 0 {
		stop = s.schedule(s.loadTimeout, func() { finish(true) })
	}
}

func (s *Stage) paramKeys() []string {
	keys := make([]string, 0, len(s.params))
	for _, k := range []string{ParamPrevious, ParamNext} {
		if _, ok := s.params[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range s.params {
		if k != ParamPrevious && k != ParamNext {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
