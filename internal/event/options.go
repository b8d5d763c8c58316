package event

import "github.com/prometheus/client_golang/prometheus"

// BusOption configures an event Bus.
type BusOption func(*busConfig)

type busConfig struct {
	// errorHandler is called when a handler fails or panics.
	errorHandler ErrorHandler

	// registerer receives the bus collectors; nil disables prometheus export.
	registerer prometheus.Registerer

	// namespace prefixes the metric names.
	namespace string
}

func defaultBusConfig() busConfig {
	return busConfig{
		errorHandler: func(any, error) {},
		namespace:    "stagehand",
	}
}

// WithErrorHandler sets the handler failure callback.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithRegisterer exports the bus counters to the given prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) BusOption {
	return func(c *busConfig) {
		c.registerer = reg
	}
}

// WithMetricsNamespace overrides the metric namespace.
func WithMetricsNamespace(ns string) BusOption {
	return func(c *busConfig) {
		if ns != "" {
			c.namespace = ns
		}
	}
}
