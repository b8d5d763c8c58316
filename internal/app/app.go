// Package app wires the stagehand components together and runs the scene
// loop that owns them.
package app

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/stagehand/internal/config"
	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/event"
	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/stage"
	"github.com/dshills/stagehand/internal/surface"
)

// Application is the central coordinator for all stagehand components.
// The scene (manager, stages and surface) is only touched from loop tasks.
type Application struct {
	config  *config.Config
	log     *logging.Logger
	bus     event.Bus
	loop    *Loop
	assets  *media.Registry
	plugins *plugin.Registry
	loader  *plugin.Loader
	surface surface.Surface
	manager *stage.Manager

	shutdown sync.Once
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty means defaults.
	ConfigPath string

	// Config replaces loading from ConfigPath.
	Config *config.Config

	// LogLevel overrides the configured log level.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Registerer receives the event bus metrics.
	Registerer prometheus.Registerer

	// Surface is the shared drawing surface. Defaults to an in-memory canvas.
	Surface surface.Surface
}

// StageSummary describes one stage of the scene.
type StageSummary struct {
	ID       string
	Selected bool
	Plugins  int
	Previous string
	Next     string
	Types    []string
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config { return app.config }

// Logger returns the root logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Bus returns the event bus.
func (app *Application) Bus() event.Bus { return app.bus }

// Loop returns the scene loop.
func (app *Application) Loop() *Loop { return app.loop }

// Plugins returns the plugin registry.
func (app *Application) Plugins() *plugin.Registry { return app.plugins }

// Loader returns the plugin bundle loader.
func (app *Application) Loader() *plugin.Loader { return app.loader }

// Assets returns the asset registry.
func (app *Application) Assets() *media.Registry { return app.assets }

// Run runs the scene loop until ctx is cancelled or Shutdown is called.
func (app *Application) Run(ctx context.Context) error {
	return app.loop.Run(ctx)
}

// Shutdown stops the loop, waits for bundle loads and releases the
// manager's subscriptions.
func (app *Application) Shutdown() {
	app.shutdown.Do(func() {
		app.loop.Stop()
		app.loader.Wait()
		_ = app.manager.Close()
		app.log.Debug("shutdown complete")
	})
}

// Scene runs fn with the stage manager on the loop.
func (app *Application) Scene(ctx context.Context, fn func(m *stage.Manager) error) error {
	return app.loop.Do(ctx, func() error { return fn(app.manager) })
}

// Import decodes data and builds its stages. Plugin bundles listed in the
// manifest are loaded before the stages are built.
func (app *Application) Import(ctx context.Context, source string, data []byte) error {
	doc, err := ecml.Decode(data)
	if err != nil {
		return NewOperationError("import", source, err)
	}
	app.Preload(ctx, doc)

	err = app.Scene(ctx, func(m *stage.Manager) error {
		return m.FromDocument(ctx, doc)
	})
	if err != nil {
		return NewOperationError("import", source, err)
	}
	app.log.Info("imported %s: %d stages", source, len(doc.Theme.Stages))
	return nil
}

// Preload loads the unregistered plugin bundles doc lists. Failures are
// logged; the plugins are skipped on import.
func (app *Application) Preload(ctx context.Context, doc *ecml.Document) {
	if doc == nil || doc.Theme == nil {
		return
	}
	for _, d := range doc.Theme.Manifest.Media {
		if !d.IsPlugin() || app.plugins.Has(d.ID) {
			continue
		}
		if err := app.loader.LoadSync(ctx, d.ID, d.Ver); err != nil {
			app.log.WithField("plugin", d.ID).Warn("preload failed: %v", err)
		}
	}
}

// Export serializes the scene as indented JSON.
func (app *Application) Export(ctx context.Context) ([]byte, error) {
	var data []byte
	err := app.Scene(ctx, func(m *stage.Manager) error {
		doc, err := m.ToDocument()
		if err != nil {
			return err
		}
		data, err = ecml.EncodeIndent(doc, "  ")
		return err
	})
	if err != nil {
		return nil, NewOperationError("export", "", err)
	}
	return data, nil
}

// Stages summarizes the stages in order.
func (app *Application) Stages(ctx context.Context) ([]StageSummary, error) {
	var out []StageSummary
	err := app.Scene(ctx, func(m *stage.Manager) error {
		for _, st := range m.Stages() {
			out = append(out, summarize(st))
		}
		return nil
	})
	return out, err
}

func summarize(st *stage.Stage) StageSummary {
	s := StageSummary{
		ID:       st.ID(),
		Selected: st.IsSelected(),
		Plugins:  len(st.Children()),
	}
	s.Previous, _ = st.Param(stage.ParamPrevious)
	s.Next, _ = st.Param(stage.ParamNext)

	seen := make(map[string]bool)
	for _, child := range st.Children() {
		key := child.Manifest().Key()
		if !seen[key] {
			seen[key] = true
			s.Types = append(s.Types, key)
		}
	}
	sort.Strings(s.Types)
	return s
}
