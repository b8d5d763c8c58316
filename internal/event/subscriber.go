package event

import (
	"context"
	"sync"

	"github.com/dshills/stagehand/internal/event/topic"
)

// PayloadHandler handles the payload of an Event[T].
type PayloadHandler[T any] func(ctx context.Context, payload T) error

// PayloadHandlerOf adapts a typed payload handler to a Handler. Events whose
// payload is not a T are skipped.
func PayloadHandlerOf[T any](fn PayloadHandler[T]) Handler {
	return HandlerFunc(func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case Event[T]:
			return fn(ctx, e.Payload)
		case T:
			return fn(ctx, e)
		}
		return nil
	})
}

// SubscribePayload subscribes a typed payload handler to a topic pattern.
func SubscribePayload[T any](b Bus, topicPattern topic.Topic, fn PayloadHandler[T], opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(topicPattern, PayloadHandlerOf(fn), opts...)
}

// Subscriber tracks the subscriptions of one component so they can be
// dropped together.
type Subscriber struct {
	bus           Bus
	subscriptions []Subscription
	mu            sync.Mutex
	closed        bool
}

// NewSubscriber creates a new Subscriber wrapping the given bus.
func NewSubscriber(bus Bus) *Subscriber {
	return &Subscriber{
		bus:           bus,
		subscriptions: make([]Subscription, 0),
	}
}

// Subscribe creates a tracked subscription for the given topic pattern.
func (s *Subscriber) Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSubscriberClosed
	}

	sub, err := s.bus.Subscribe(topicPattern, handler, opts...)
	if err != nil {
		return nil, err
	}

	s.subscriptions = append(s.subscriptions, sub)
	return sub, nil
}

// SubscribeFunc creates a tracked subscription with a function handler.
func (s *Subscriber) SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	return s.Subscribe(topicPattern, fn, opts...)
}

// UnsubscribeAll removes all subscriptions managed by this subscriber.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		_ = s.bus.Unsubscribe(sub)
	}
	s.subscriptions = s.subscriptions[:0]
}

// Close cancels all subscriptions and prevents new ones.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, sub := range s.subscriptions {
		_ = s.bus.Unsubscribe(sub)
	}
	s.subscriptions = nil
	return nil
}

// Count returns the number of tracked subscriptions.
func (s *Subscriber) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions)
}
