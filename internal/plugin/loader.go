package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dshills/stagehand/internal/logging"
)

// Default retry policy of the loader.
const (
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 200 * time.Millisecond
)

// Builder turns a loaded bundle manifest into a Factory.
type Builder func(m *Manifest) (Factory, error)

// LoadResult reports the outcome of one bundle load.
type LoadResult struct {
	ID  string
	Ver string
	Err error
}

// Loader fetches plugin bundles from "<dir>/<id>-<ver>/" and registers them.
// Bundles are read with retries because they may still be arriving on disk.
type Loader struct {
	registry *Registry

	// Bundle root directory
	dir string

	// Builders by renderer entry point extension ("" for bundles without one)
	builders map[string]Builder

	maxRetries uint64
	interval   time.Duration
	log        *logging.Logger

	// Called from the loading goroutine when a Load finishes
	notify func(LoadResult)

	mu     sync.Mutex
	states map[string]State
	errs   map[string]error
	wg     sync.WaitGroup
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDir sets the bundle root directory.
func WithDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithBuilder sets the builder for bundles whose renderer entry point has
// the given extension (".lua"). The empty extension covers bundles without
// an entry point.
func WithBuilder(ext string, b Builder) LoaderOption {
	return func(l *Loader) {
		l.builders[ext] = b
	}
}

// WithMaxRetries sets how often a failed read is retried.
func WithMaxRetries(n uint64) LoaderOption {
	return func(l *Loader) {
		l.maxRetries = n
	}
}

// WithRetryInterval sets the initial retry interval.
func WithRetryInterval(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.interval = d
	}
}

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(log *logging.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// WithNotify sets the callback run after each asynchronous Load.
func WithNotify(fn func(LoadResult)) LoaderOption {
	return func(l *Loader) {
		l.notify = fn
	}
}

// NewLoader creates a loader registering bundles with reg. Bundles without
// an entry point or with a ".js" one are built with NewBase unless
// overridden.
func NewLoader(reg *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry:   reg,
		dir:        "plugins",
		builders:   map[string]Builder{"": baseBuilder, ".js": baseBuilder},
		maxRetries: DefaultMaxRetries,
		interval:   DefaultRetryInterval,
		log:        logging.Null(),
		states:     make(map[string]State),
		errs:       make(map[string]error),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithComponent("loader")
	return l
}

// Dir returns the bundle root directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load starts loading the bundle id-ver in the background.
func (l *Loader) Load(ctx context.Context, id, ver string) {
	key := bundleKey(id, ver)

	l.mu.Lock()
	if l.states[key] == StateLoading || l.states[key] == StateLoaded {
		l.mu.Unlock()
		return
	}
	l.states[key] = StateLoading
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		err := l.LoadSync(ctx, id, ver)
		if l.notify != nil {
			l.notify(LoadResult{ID: id, Ver: ver, Err: err})
		}
	}()
}

// LoadSync loads and registers the bundle id-ver, retrying reads of a
// missing manifest. Invalid manifests fail without retry.
func (l *Loader) LoadSync(ctx context.Context, id, ver string) error {
	key := bundleKey(id, ver)
	l.setState(key, StateLoading, nil)

	file := filepath.Join(l.dir, key, ManifestFile)
	var m *Manifest
	op := func() error {
		var err error
		m, err = LoadManifest(file)
		if err == nil {
			return nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			l.log.Debug("bundle %s not readable yet: %v", key, err)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.interval
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, l.maxRetries), ctx)); err != nil {
		return l.fail(key, fmt.Errorf("load %s: %w", key, err))
	}

	if m.ID != id {
		return l.fail(key, fmt.Errorf("load %s: %w: manifest id %q", key, ErrInvalidPlugin, m.ID))
	}

	factory, err := l.build(m)
	if err != nil {
		return l.fail(key, fmt.Errorf("load %s: %w", key, err))
	}

	if err := l.registry.Register(m, factory); err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return l.fail(key, fmt.Errorf("load %s: %w", key, err))
	}

	l.setState(key, StateLoaded, nil)
	l.log.Info("loaded plugin %s", key)
	return nil
}

// Wait blocks until every background Load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// State returns the load state of the bundle id-ver.
func (l *Loader) State(id, ver string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[bundleKey(id, ver)]
}

// Err returns the error of the last failed load of id-ver.
func (l *Loader) Err(id, ver string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs[bundleKey(id, ver)]
}

func (l *Loader) build(m *Manifest) (Factory, error) {
	ext := ""
	if m.HasRenderer() {
		ext = path.Ext(m.Renderer.Main)
	}
	b, ok := l.builders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoBuilder, ext)
	}
	return b(m)
}

func (l *Loader) fail(key string, err error) error {
	l.setState(key, StateError, err)
	l.log.Warn("%v", err)
	return err
}

func (l *Loader) setState(key string, s State, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[key] = s
	if err != nil {
		l.errs[key] = err
	} else {
		delete(l.errs, key)
	}
}

func bundleKey(id, ver string) string {
	return id + "-" + ver
}

func baseBuilder(*Manifest) (Factory, error) {
	return NewBase, nil
}
