package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when no factory is registered for a key.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrNilFactory is returned when registering a plugin without a factory.
	ErrNilFactory = errors.New("factory is nil")

	// ErrAlreadyRegistered is returned when a plugin id is registered twice.
	ErrAlreadyRegistered = errors.New("plugin is already registered")

	// ErrNoBuilder is returned when no builder handles a bundle's entry point.
	ErrNoBuilder = errors.New("no builder for plugin entry point")

	// ErrInvalidPlugin is returned when a factory produces an unusable instance.
	ErrInvalidPlugin = errors.New("invalid plugin")
)

// UnresolvedPluginError reports a plugin key that could not be instantiated.
type UnresolvedPluginError struct {
	Key string
	Err error
}

// Error implements error.
func (e *UnresolvedPluginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to instantiate %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("unable to instantiate %q", e.Key)
}

// Unwrap returns the underlying cause.
func (e *UnresolvedPluginError) Unwrap() error {
	if e.Err == nil {
		return ErrPluginNotFound
	}
	return e.Err
}
