package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/logging"
)

// BundleLoader fetches plugin bundles that are not registered yet.
// Load must not block on the fetch.
type BundleLoader interface {
	Load(ctx context.Context, id, ver string)
}

// Registry maps plugin keys to factories and tracks live instances.
type Registry struct {
	mu sync.RWMutex

	// Registered plugins by manifest id
	plugins map[string]*registration

	// Short ids to manifest ids
	aliases map[string]string

	// Registration order (for deterministic iteration)
	order []string

	// Live instances by instance id
	instances map[string]Instance

	loader BundleLoader
	assets AssetLookup
	log    *logging.Logger
}

type registration struct {
	manifest *Manifest
	factory  Factory
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

// WithBundleLoader sets the loader used by LoadPlugin.
func WithBundleLoader(l BundleLoader) RegistryOption {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithAssets sets the asset lookup bound to instances implementing
// AssetBinder.
func WithAssets(a AssetLookup) RegistryOption {
	return func(r *Registry) {
		r.assets = a
	}
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		plugins:   make(map[string]*registration),
		aliases:   make(map[string]string),
		instances: make(map[string]Instance),
		log:       logging.Null(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("plugin")
	return r
}

// SetLoader sets the loader used by LoadPlugin.
func (r *Registry) SetLoader(l BundleLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = l
}

// Register makes the plugin described by m instantiable.
func (r *Registry) Register(m *Manifest, f Factory) error {
	if m == nil {
		return ErrNilManifest
	}
	if f == nil {
		return ErrNilFactory
	}
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[m.ID]; exists {
		return fmt.Errorf("plugin %q: %w", m.ID, ErrAlreadyRegistered)
	}
	r.plugins[m.ID] = &registration{manifest: m, factory: f}
	if m.ShortID != "" {
		r.aliases[m.ShortID] = m.ID
	}
	r.order = append(r.order, m.ID)

	r.log.Debug("registered %s-%s", m.ID, m.Ver)
	return nil
}

// Unregister removes the plugin with the given id.
// Live instances stay resolvable until forgotten.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.plugins[id]
	if !ok {
		return false
	}
	delete(r.plugins, id)
	if reg.manifest.ShortID != "" {
		delete(r.aliases, reg.manifest.ShortID)
	}
	for i, name := range r.order {
		if name == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the manifest registered under a manifest id or short id.
func (r *Registry) Lookup(key string) (*Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg := r.lookupLocked(key)
	if reg == nil {
		return nil, false
	}
	return reg.manifest, true
}

// Has reports whether key names a registered plugin.
func (r *Registry) Has(key string) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Types returns the registered manifest ids in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Instantiate creates an instance of the plugin registered under key and,
// when parent is non-nil, appends it to parent. It returns an
// *UnresolvedPluginError when key is unknown or the factory fails.
func (r *Registry) Instantiate(key string, data ecml.PluginBody, parent Container) (inst Instance, err error) {
	r.mu.RLock()
	reg := r.lookupLocked(key)
	r.mu.RUnlock()

	if reg == nil {
		return nil, &UnresolvedPluginError{Key: key}
	}
	if data == nil {
		data = ecml.PluginBody{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			inst = nil
			err = &UnresolvedPluginError{Key: key, Err: fmt.Errorf("%w: factory panic: %v", ErrInvalidPlugin, rec)}
		}
	}()

	inst, err = reg.factory(reg.manifest, data, parent)
	if err != nil {
		return nil, &UnresolvedPluginError{Key: key, Err: err}
	}
	if inst == nil {
		return nil, &UnresolvedPluginError{Key: key, Err: ErrInvalidPlugin}
	}

	r.mu.Lock()
	r.instances[inst.ID()] = inst
	assets := r.assets
	r.mu.Unlock()

	if binder, ok := inst.(AssetBinder); ok && assets != nil {
		binder.BindAssets(assets)
	}

	if parent != nil {
		parent.AddChild(inst)
	}
	return inst, nil
}

// Instance returns the live instance with the given id.
func (r *Registry) Instance(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

// Forget drops a live instance.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
}

// ResolveType returns the event type of the live instance with the given
// id, or "" when the id is unknown.
func (r *Registry) ResolveType(instanceID string) string {
	if instanceID == "" {
		return ""
	}
	inst, ok := r.Instance(instanceID)
	if !ok || inst.Manifest() == nil {
		return ""
	}
	return inst.Manifest().EventType()
}

// LoadPlugin requests the bundle id-ver from the loader unless the plugin
// is already registered. It does not wait for the load.
func (r *Registry) LoadPlugin(ctx context.Context, id, ver string) {
	if r.Has(id) {
		r.log.Debug("plugin %s already registered", id)
		return
	}

	r.mu.RLock()
	loader := r.loader
	r.mu.RUnlock()

	if loader == nil {
		r.log.Warn("no loader for plugin %s-%s", id, ver)
		return
	}
	loader.Load(ctx, id, ver)
}

func (r *Registry) lookupLocked(key string) *registration {
	if reg, ok := r.plugins[key]; ok {
		return reg
	}
	if id, ok := r.aliases[key]; ok {
		return r.plugins[id]
	}
	return nil
}
