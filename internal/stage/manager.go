package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/event"
	"github.com/dshills/stagehand/internal/event/events"
	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/surface"
)

// eventSource labels events published by the manager.
const eventSource = "stage"

// Default theme written by ToDocument.
const (
	DefaultThemeID      = "theme"
	DefaultThemeVersion = 0.2
)

// PluginRegistry is the plugin capability the manager depends on.
type PluginRegistry interface {
	ResolveType(instanceID string) string
	Instantiate(key string, data ecml.PluginBody, parent plugin.Container) (plugin.Instance, error)
	LoadPlugin(ctx context.Context, id, ver string)
}

// AssetRegistry receives the non-plugin media of imported documents.
type AssetRegistry interface {
	AddMedia(d media.Descriptor)
}

// AssetResolver maps a path inside a plugin bundle to its URL path.
type AssetResolver func(pluginID, ver, rel string) string

// Manager owns the ordered stages, the current stage and the shared surface.
// It is not safe for concurrent use; all calls and all bus and surface
// callbacks must happen on one goroutine.
type Manager struct {
	bus     event.Bus
	plugins PluginRegistry
	surface surface.Surface

	assets       AssetRegistry
	newSurface   surface.Factory
	surfaceOpts  surface.Options
	corePlugins  map[string]bool
	coreMapping  map[string]string
	baseURL      string
	resolveAsset AssetResolver
	loadTimeout  time.Duration
	schedule     Scheduler
	themeID      string
	themeVersion float64
	log          *logging.Logger

	stages  []*Stage
	current *Stage

	subscriber *event.Subscriber
	onAdded    surface.Handler
}

// Option configures a Manager.
type Option func(*Manager)

// WithAssets sets the asset registry imported media are added to.
func WithAssets(a AssetRegistry) Option {
	return func(m *Manager) {
		m.assets = a
	}
}

// WithSurfaceFactory sets the factory of per-stage load surfaces.
func WithSurfaceFactory(f surface.Factory, opts surface.Options) Option {
	return func(m *Manager) {
		m.newSurface = f
		m.surfaceOpts = opts
	}
}

// WithCorePlugins sets the plugin ids left out of the document manifest.
func WithCorePlugins(ids ...string) Option {
	return func(m *Manager) {
		m.corePlugins = make(map[string]bool, len(ids))
		for _, id := range ids {
			m.corePlugins[id] = true
		}
	}
}

// WithCorePluginMapping sets the aliases of plugin keys used on import.
func WithCorePluginMapping(mapping map[string]string) Option {
	return func(m *Manager) {
		m.coreMapping = make(map[string]string, len(mapping))
		for k, v := range mapping {
			m.coreMapping[k] = v
		}
	}
}

// WithAssetURLs sets how plugin entry points are turned into manifest URLs:
// baseURL + resolve(id, ver, renderer.main).
func WithAssetURLs(baseURL string, resolve AssetResolver) Option {
	return func(m *Manager) {
		m.baseURL = baseURL
		if resolve != nil {
			m.resolveAsset = resolve
		}
	}
}

// WithLoadTimeout bounds the wait for an imported stage to finish loading.
// Timeouts are run through schedule.
func WithLoadTimeout(d time.Duration, schedule Scheduler) Option {
	return func(m *Manager) {
		m.loadTimeout = d
		m.schedule = schedule
	}
}

// WithTheme sets the theme id and version written by ToDocument.
func WithTheme(id string, version float64) Option {
	return func(m *Manager) {
		m.themeID = id
		m.themeVersion = version
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// NewManager creates a manager drawing on surf.
func NewManager(bus event.Bus, plugins PluginRegistry, surf surface.Surface, opts ...Option) *Manager {
	m := &Manager{
		bus:          bus,
		plugins:      plugins,
		surface:      surf,
		newSurface:   surface.NewFactory(),
		surfaceOpts:  surface.DefaultOptions(),
		corePlugins:  map[string]bool{},
		coreMapping:  map[string]string{"stage": PluginID},
		resolveAsset: defaultAssetResolver,
		themeID:      DefaultThemeID,
		themeVersion: DefaultThemeVersion,
		log:          logging.Null(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("stage")
	m.subscriber = event.NewSubscriber(bus)
	return m
}

// Surface returns the shared surface.
func (m *Manager) Surface() surface.Surface {
	return m.surface
}

// Stages returns the stages in order.
func (m *Manager) Stages() []*Stage {
	out := make([]*Stage, len(m.stages))
	copy(out, m.stages)
	return out
}

// Stage returns the stage with the given id.
func (m *Manager) Stage(id string) (*Stage, bool) {
	st := m.find(id)
	return st, st != nil
}

// CurrentStage returns the selected stage, or nil.
func (m *Manager) CurrentStage() *Stage {
	return m.current
}

// AddStage appends st, selects it and publishes stage:select.
func (m *Manager) AddStage(ctx context.Context, st *Stage) error {
	if st == nil {
		return fmt.Errorf("add stage: %w", ErrNotAStage)
	}
	if m.find(st.ID()) != nil {
		return fmt.Errorf("add stage %q: %w", st.ID(), ErrDuplicateStage)
	}
	m.configure(st)
	m.stages = append(m.stages, st)

	if err := m.SelectStage(ctx, st.ID()); err != nil {
		return err
	}
	return m.publishSelect(ctx, st.ID())
}

// SelectStage makes the stage with the given id current and draws it on the
// shared surface. Selecting the current stage does nothing. The switch is
// complete before stage:unselect is published, so handlers that select
// another stage start from a consistent scene.
func (m *Manager) SelectStage(ctx context.Context, id string) error {
	target := m.find(id)
	if target == nil {
		return &NotFoundError{StageID: id}
	}
	if target == m.current {
		return nil
	}

	prev := m.current
	if prev != nil {
		prev.selected = false
		prev.SetSurface(nil)
		m.surface.Clear()
	}

	target.selected = true
	m.current = target
	m.bind(target)

	if prev == nil {
		return nil
	}
	unselect := event.NewEvent(events.TopicStageUnselect, events.StageUnselect{StageID: prev.ID()}, eventSource)
	if err := m.bus.Publish(ctx, unselect); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicStageUnselect, err)
	}
	return nil
}

// bind draws st on the shared surface. The object:added listener is
// detached while the children are drawn since they are not new objects.
func (m *Manager) bind(st *Stage) {
	m.surface.Off(surface.EventObjectAdded)
	st.SetSurface(m.surface)
	st.Render(m.surface)
	if m.onAdded != nil {
		m.surface.On(surface.EventObjectAdded, m.onAdded)
	}
}

// AddPlugin instantiates the plugin registered under key onto the current
// stage.
func (m *Manager) AddPlugin(key string, data ecml.PluginBody) (plugin.Instance, error) {
	if m.current == nil {
		return nil, ErrNoCurrentStage
	}
	return m.plugins.Instantiate(m.resolveKey(key), data, m.current)
}

// DeleteStage is not implemented.
func (m *Manager) DeleteStage(id string) error {
	return fmt.Errorf("delete stage %q: %w", id, ErrNotImplemented)
}

// DuplicateStage is not implemented.
func (m *Manager) DuplicateStage(id string) error {
	return fmt.Errorf("duplicate stage %q: %w", id, ErrNotImplemented)
}

// Close drops the bus subscriptions and surface listeners of RegisterEvents.
// RegisterEvents may be called again afterwards.
func (m *Manager) Close() error {
	if m.onAdded == nil {
		return nil
	}
	for _, raw := range rawObjectEvents {
		m.surface.Off(raw.name)
	}
	m.onAdded = nil
	m.subscriber.UnsubscribeAll()
	return nil
}

func (m *Manager) publishSelect(ctx context.Context, id string) error {
	sel := event.NewEvent(events.TopicStageSelect, events.StageSelect{StageID: id}, eventSource)
	if err := m.bus.Publish(ctx, sel); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicStageSelect, err)
	}
	return nil
}

func (m *Manager) find(id string) *Stage {
	for _, st := range m.stages {
		if st.ID() == id {
			return st
		}
	}
	return nil
}

// configure hands the manager's load settings to st.
func (m *Manager) configure(st *Stage) {
	st.loadTimeout = m.loadTimeout
	st.schedule = m.schedule
	st.log = m.log
}

// resolveKey maps a plugin key through the core plugin aliases.
func (m *Manager) resolveKey(key string) string {
	if id, ok := m.coreMapping[key]; ok {
		return id
	}
	return key
}

func defaultAssetResolver(id, ver, rel string) string {
	return "/" + id + "-" + ver + "/" + rel
}
