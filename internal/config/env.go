package config

import (
	"sort"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "STAGEHAND_"

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// envSetters maps environment variables to the setting they override.
var envSetters = map[string]func(c *Config, val string) error{
	EnvPrefix + "LOG_LEVEL": func(c *Config, val string) error {
		c.Log.Level = val
		return nil
	},
	EnvPrefix + "BASE_URL": func(c *Config, val string) error {
		c.AbsoluteBaseURL = val
		return nil
	},
	EnvPrefix + "PLUGIN_REPO": func(c *Config, val string) error {
		c.PluginRepo = val
		return nil
	},
	EnvPrefix + "PLUGIN_DIR": func(c *Config, val string) error {
		c.PluginDir = val
		return nil
	},
	EnvPrefix + "LOAD_TIMEOUT": func(c *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		c.LoadTimeout = Duration(d)
		return nil
	},
	EnvPrefix + "MAX_RETRIES": func(c *Config, val string) error {
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return err
		}
		c.Loader.MaxRetries = n
		return nil
	},
}

// EnvVars returns the supported environment variables, sorted.
func EnvVars() []string {
	out := make([]string, 0, len(envSetters))
	for name := range envSetters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ApplyEnv overrides settings from the environment variables lookup finds.
// Empty values are treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, name := range EnvVars() {
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envSetters[name](c, val); err != nil {
			return &ParseError{Path: name, Message: err.Error(), Err: err}
		}
	}
	return nil
}
