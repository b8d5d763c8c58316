package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultSurfaceWidth  = 720
	DefaultSurfaceHeight = 405
	DefaultLoadTimeout   = 5 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 200 * time.Millisecond
	DefaultPluginRepo    = "/plugins"
	DefaultPluginDir     = "plugins"
	DefaultLogLevel      = "info"
)

// Config is the complete stagehand configuration.
type Config struct {
	// CorePlugins are the plugin ids left out of the document manifest.
	CorePlugins []string `toml:"core_plugins"`

	// CorePluginMapping maps plugin keys used in documents to plugin ids.
	CorePluginMapping map[string]string `toml:"core_plugin_mapping"`

	// AbsoluteBaseURL prefixes the plugin URLs written to the manifest.
	AbsoluteBaseURL string `toml:"absolute_base_url"`

	// PluginRepo is the URL path under which plugin bundles are served.
	PluginRepo string `toml:"plugin_repo"`

	// PluginDir is the directory plugin bundles are loaded from.
	PluginDir string `toml:"plugin_dir"`

	// LoadTimeout bounds the wait for an imported stage to load.
	LoadTimeout Duration `toml:"load_timeout"`

	Surface SurfaceConfig `toml:"surface"`
	Loader  LoaderConfig  `toml:"loader"`
	Log     LogConfig     `toml:"log"`
}

// SurfaceConfig sets the dimension of stage load surfaces.
type SurfaceConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// LoaderConfig controls plugin bundle loading.
type LoaderConfig struct {
	MaxRetries    uint64   `toml:"max_retries"`
	RetryInterval Duration `toml:"retry_interval"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CorePlugins: []string{
			"org.ekstep.stage",
			"org.ekstep.shape",
			"org.ekstep.text",
			"org.ekstep.image",
		},
		CorePluginMapping: map[string]string{
			"stage": "org.ekstep.stage",
			"shape": "org.ekstep.shape",
			"text":  "org.ekstep.text",
			"image": "org.ekstep.image",
		},
		PluginRepo:  DefaultPluginRepo,
		PluginDir:   DefaultPluginDir,
		LoadTimeout: Duration(DefaultLoadTimeout),
		Surface: SurfaceConfig{
			Width:      DefaultSurfaceWidth,
			Height:     DefaultSurfaceHeight,
			Background: "#FFFFFF",
		},
		Loader: LoaderConfig{
			MaxRetries:    DefaultMaxRetries,
			RetryInterval: Duration(DefaultRetryInterval),
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load returns the defaults overridden by the TOML file at path (skipped
// when path is empty) and by the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := cfg.Decode(path, data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges TOML data into c. Unknown keys are rejected.
func (c *Config) Decode(source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return parseError(source, err)
	}
	return nil
}

func parseError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}

	var decErr *toml.DecodeError
	var strictErr *toml.StrictMissingError
	switch {
	case errors.As(err, &decErr):
		pe.Line, pe.Column = decErr.Position()
	case errors.As(err, &strictErr):
		pe.Message = strictErr.String()
		if len(strictErr.Errors) > 0 {
			pe.Line, pe.Column = strictErr.Errors[0].Position()
		}
	}
	return pe
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.Surface.Width <= 0 {
		fail("surface.width", "must be positive", c.Surface.Width)
	}
	if c.Surface.Height <= 0 {
		fail("surface.height", "must be positive", c.Surface.Height)
	}
	if c.LoadTimeout < 0 {
		fail("load_timeout", "must not be negative", c.LoadTimeout.Std())
	}
	if c.Loader.RetryInterval < 0 {
		fail("loader.retry_interval", "must not be negative", c.Loader.RetryInterval.Std())
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("log.level", "must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.AbsoluteBaseURL != "" {
		u, err := url.Parse(c.AbsoluteBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			fail("absolute_base_url", "must be an absolute URL", c.AbsoluteBaseURL)
		}
	}
	for key, id := range c.CorePluginMapping {
		if key == "" || id == "" {
			fail("core_plugin_mapping", "keys and ids must not be empty", key+"="+id)
		}
	}
	return errors.Join(errs...)
}

// IsCorePlugin reports whether id is listed in CorePlugins.
func (c *Config) IsCorePlugin(id string) bool {
	for _, core := range c.CorePlugins {
		if core == id {
			return true
		}
	}
	return false
}

// ResolveRelativeAssetPath returns the URL path of rel inside the bundle
// of plugin id-ver.
func (c *Config) ResolveRelativeAssetPath(id, ver, rel string) string {
	repo := strings.TrimSuffix(c.PluginRepo, "/")
	return repo + "/" + id + "-" + ver + "/" + strings.TrimPrefix(rel, "/")
}
