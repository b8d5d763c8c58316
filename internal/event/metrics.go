package event

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/stagehand/internal/event/topic"
)

// busMetrics exports bus counters labelled by topic namespace
// ("object", "stage", or a plugin type).
type busMetrics struct {
	publishedTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	panicsTotal    *prometheus.CounterVec
}

func newBusMetrics(namespace string, reg prometheus.Registerer) *busMetrics {
	if reg == nil {
		return nil
	}

	m := &busMetrics{
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "published_total",
			Help:      "Events published on the bus.",
		}, []string{"namespace", "kind"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "handler_errors_total",
			Help:      "Handlers that returned an error.",
		}, []string{"namespace", "kind"}),
		panicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "handler_panics_total",
			Help:      "Handlers that panicked.",
		}, []string{"namespace", "kind"}),
	}

	for _, c := range []prometheus.Collector{m.publishedTotal, m.errorsTotal, m.panicsTotal} {
		var are prometheus.AlreadyRegisteredError
		if err := reg.Register(c); errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				m.adopt(c, existing)
			}
		}
	}
	return m
}

// adopt swaps a freshly built collector for one already registered under the
// same name, so several buses can share one registerer.
func (m *busMetrics) adopt(fresh prometheus.Collector, existing *prometheus.CounterVec) {
	switch fresh {
	case m.publishedTotal:
		m.publishedTotal = existing
	case m.errorsTotal:
		m.errorsTotal = existing
	case m.panicsTotal:
		m.panicsTotal = existing
	}
}

func (m *busMetrics) published(t topic.Topic) {
	if m == nil {
		return
	}
	m.publishedTotal.WithLabelValues(t.Namespace(), t.Base()).Inc()
}

func (m *busMetrics) failed(t topic.Topic) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(t.Namespace(), t.Base()).Inc()
}

func (m *busMetrics) panicked(t topic.Topic) {
	if m == nil {
		return
	}
	m.panicsTotal.WithLabelValues(t.Namespace(), t.Base()).Inc()
}
