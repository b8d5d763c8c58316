package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/stagehand/internal/event/topic"
)

// Bus is the synchronous event bus.
type Bus interface {
	// Publish delivers the event to every matching handler before returning.
	Publish(ctx context.Context, event any) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	// Stats returns delivery counters.
	Stats() Stats
}

type bus struct {
	registry *Registry
	config   busConfig
	metrics  *busMetrics

	seq atomic.Uint64

	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &bus{
		registry: NewRegistry(),
		config:   config,
		metrics:  newBusMetrics(config.namespace, config.registerer),
	}
}

// Publish delivers the event synchronously. Handlers may publish further events;
// those are delivered before Publish resumes with the remaining handlers.
func (b *bus) Publish(ctx context.Context, event any) error {
	eventTopic := extractTopic(event)
	if !eventTopic.IsValid() || eventTopic.IsWildcard() {
		return fmt.Errorf("%w: topic %q", ErrInvalidEvent, eventTopic)
	}

	b.eventsPublished.Add(1)
	b.metrics.published(eventTopic)

	for _, sub := range b.registry.Match(eventTopic) {
		if !sub.Active() {
			continue
		}
		b.deliver(ctx, eventTopic, event, sub)
	}

	return nil
}

func (b *bus) deliver(ctx context.Context, eventTopic topic.Topic, event any, sub *subscription) {
	var failure error
	func() {
		defer func() {
			if r := recover(); r != nil {
				failure = &PanicError{
					SubscriptionID: sub.ID(),
					Topic:          eventTopic.String(),
					Value:          r,
					Stack:          string(debug.Stack()),
				}
			}
		}()
		if err := sub.handler.Handle(ctx, event); err != nil {
			failure = &HandlerError{SubscriptionID: sub.ID(), Topic: eventTopic.String(), Err: err}
		}
	}()

	switch failure.(type) {
	case nil:
		b.eventsDelivered.Add(1)
		return
	case *PanicError:
		b.handlerPanics.Add(1)
		b.metrics.panicked(eventTopic)
	default:
		b.handlerErrors.Add(1)
		b.metrics.failed(eventTopic)
	}
	b.config.errorHandler(event, failure)
}

// Subscribe registers a handler for a topic pattern.
func (b *bus) Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if !topicPattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, topicPattern)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := newSubscription(uuid.NewString(), b.seq.Add(1), topicPattern, handler, opts...)
	b.registry.Add(sub)
	return sub, nil
}

// SubscribeFunc registers a function handler for a topic pattern.
func (b *bus) SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(topicPattern, fn, opts...)
}

// Unsubscribe removes a subscription. A handler removed during a publish is
// not called for the rest of that publish.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil || !b.registry.Remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Stats returns delivery counters.
func (b *bus) Stats() Stats {
	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: b.registry.Count(),
	}
}

func extractTopic(event any) topic.Topic {
	if tp, ok := event.(TopicProvider); ok {
		return tp.EventTopic()
	}
	return ""
}
