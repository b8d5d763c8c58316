package event

import (
	"sync/atomic"

	"github.com/dshills/stagehand/internal/event/topic"
)

// Subscription is a handler registered on a bus for a topic pattern.
type Subscription interface {
	ID() string
	Topic() topic.Topic
	Priority() Priority

	// Active reports whether the subscription still receives events. It
	// turns false as soon as the subscription is removed, including while
	// an event it matched is being delivered to earlier handlers.
	Active() bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscription)

// WithPriority places the handler among the handlers matching the same
// event. Lower values run first; handlers of equal priority run in
// subscription order.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *subscription) {
		s.priority = p
	}
}

type subscription struct {
	id       string
	seq      uint64
	pattern  topic.Topic
	priority Priority
	handler  Handler
	removed  atomic.Bool
}

func newSubscription(id string, seq uint64, pattern topic.Topic, h Handler, opts ...SubscriptionOption) *subscription {
	s := &subscription{
		id:       id,
		seq:      seq,
		pattern:  pattern,
		priority: PriorityNormal,
		handler:  h,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *subscription) ID() string         { return s.id }
func (s *subscription) Topic() topic.Topic { return s.pattern }
func (s *subscription) Priority() Priority { return s.priority }
func (s *subscription) Active() bool       { return !s.removed.Load() }

// runsBefore orders deliveries by priority, then subscription order.
func (s *subscription) runsBefore(other *subscription) bool {
	if s.priority != other.priority {
		return s.priority < other.priority
	}
	return s.seq < other.seq
}
