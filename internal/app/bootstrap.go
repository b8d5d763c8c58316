package app

import (
	"os"
	"sort"

	"github.com/dshills/stagehand/internal/config"
	"github.com/dshills/stagehand/internal/event"
	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/plugin/lua"
	"github.com/dshills/stagehand/internal/stage"
	"github.com/dshills/stagehand/internal/surface"
)

// CorePluginVersion is the version registered for built-in core plugins.
const CorePluginVersion = "1.0"

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initEventBus,
		b.initLoop,
		b.initAssets,
		b.initPlugins,
		b.initManager,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads the configuration unless one was given.
func (b *bootstrapper) initConfig() error {
	cfg := b.opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(b.opts.ConfigPath); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	} else if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if b.opts.LogLevel != "" {
		cfg.Log.Level = b.opts.LogLevel
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger creates the root logger.
func (b *bootstrapper) initLogger() error {
	out := b.opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	b.app.log = logging.New(logging.Config{
		Level:  logging.ParseLevel(b.app.config.Log.Level),
		Output: out,
		Prefix: "stagehand",
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initEventBus creates the event bus.
func (b *bootstrapper) initEventBus() error {
	log := b.app.log.WithComponent("event")
	opts := []event.BusOption{
		event.WithErrorHandler(func(_ any, err error) {
			log.Warn("handler failed: %v", err)
		}),
	}
	if b.opts.Registerer != nil {
		opts = append(opts, event.WithRegisterer(b.opts.Registerer))
	}
	b.app.bus = event.NewBus(opts...)
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

// initLoop creates the scene loop.
func (b *bootstrapper) initLoop() error {
	b.app.loop = NewLoop(DefaultQueueSize, b.app.log)
	b.initOrder = append(b.initOrder, "loop")
	return nil
}

// initAssets creates the asset registry.
func (b *bootstrapper) initAssets() error {
	b.app.assets = media.NewRegistry()
	b.initOrder = append(b.initOrder, "assets")
	return nil
}

// initPlugins creates the plugin registry with the stage and core plugins
// and the bundle loader.
func (b *bootstrapper) initPlugins() error {
	cfg := b.app.config
	log := b.app.log

	reg := plugin.NewRegistry(
		plugin.WithLogger(log.WithComponent("plugin")),
		plugin.WithAssets(b.app.assets),
	)
	if err := stage.Register(reg); err != nil {
		return &InitError{Component: "plugins", Err: err}
	}
	for _, m := range coreManifests(cfg) {
		if err := reg.Register(m, plugin.NewBase); err != nil {
			return &InitError{Component: "plugins", Err: err}
		}
	}

	loaderLog := log.WithComponent("loader")
	b.app.loader = plugin.NewLoader(reg,
		plugin.WithDir(cfg.PluginDir),
		plugin.WithMaxRetries(cfg.Loader.MaxRetries),
		plugin.WithRetryInterval(cfg.Loader.RetryInterval.Std()),
		plugin.WithBuilder(lua.Extension, lua.NewBuilder(lua.WithLogger(log))),
		plugin.WithLoaderLogger(log),
		plugin.WithNotify(func(r plugin.LoadResult) {
			if r.Err != nil {
				loaderLog.Warn("plugin %s-%s not loaded: %v", r.ID, r.Ver, r.Err)
			}
		}),
	)
	reg.SetLoader(b.app.loader)
	b.app.plugins = reg
	b.initOrder = append(b.initOrder, "plugins")
	return nil
}

// coreManifests returns the manifests of the core plugins other than the
// stage. A core plugin is stored under its mapping alias when it has one.
func coreManifests(cfg *config.Config) []*plugin.Manifest {
	aliases := make(map[string]string, len(cfg.CorePluginMapping))
	keys := make([]string, 0, len(cfg.CorePluginMapping))
	for key := range cfg.CorePluginMapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		id := cfg.CorePluginMapping[key]
		if _, taken := aliases[id]; !taken && key != id {
			aliases[id] = key
		}
	}

	var out []*plugin.Manifest
	for _, id := range cfg.CorePlugins {
		if id == stage.PluginID {
			continue
		}
		m := &plugin.Manifest{ID: id, ShortID: aliases[id], Ver: CorePluginVersion}
		if m.Validate() != nil {
			m.ShortID = ""
		}
		out = append(out, m)
	}
	return out
}

// initManager creates the stage manager drawing on the shared surface.
func (b *bootstrapper) initManager() error {
	cfg := b.app.config

	surf := b.opts.Surface
	if surf == nil {
		surf = surface.NewCanvas("main", surface.DefaultOptions())
	}
	b.app.surface = surf

	b.app.manager = stage.NewManager(b.app.bus, b.app.plugins, surf,
		stage.WithAssets(b.app.assets),
		stage.WithSurfaceFactory(surface.NewFactory(), surface.Options{
			Width:      cfg.Surface.Width,
			Height:     cfg.Surface.Height,
			Background: cfg.Surface.Background,
		}),
		stage.WithCorePlugins(cfg.CorePlugins...),
		stage.WithCorePluginMapping(cfg.CorePluginMapping),
		stage.WithAssetURLs(cfg.AbsoluteBaseURL, cfg.ResolveRelativeAssetPath),
		stage.WithLoadTimeout(cfg.LoadTimeout.Std(), b.app.loop.Scheduler()),
		stage.WithLogger(b.app.log),
	)
	b.initOrder = append(b.initOrder, "manager")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "manager":
		if b.app.manager != nil {
			_ = b.app.manager.Close()
			b.app.manager = nil
		}
	case "plugins":
		if b.app.loader != nil {
			b.app.loader.Wait()
			b.app.loader = nil
		}
		b.app.plugins = nil
	case "assets":
		if b.app.assets != nil {
			b.app.assets.Flush()
			b.app.assets = nil
		}
	case "loop":
		if b.app.loop != nil {
			b.app.loop.Stop()
			b.app.loop = nil
		}
	case "eventBus":
		b.app.bus = nil
	}
}
