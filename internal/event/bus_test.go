package event

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stagehand/internal/event/topic"
)

type note struct {
	Text string
}

func newNote(t topic.Topic, text string) Event[note] {
	return NewEvent(t, note{Text: text}, "test")
}

func TestBus_PublishDeliversToMatchingHandlers(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []string
	_, err := bus.SubscribeFunc("object:added", func(_ context.Context, e any) error {
		got = append(got, "exact:"+e.(Event[note]).Payload.Text)
		return nil
	})
	require.NoError(t, err)
	_, err = bus.SubscribeFunc("object:*", func(_ context.Context, e any) error {
		got = append(got, "wild:"+e.(Event[note]).Payload.Text)
		return nil
	})
	require.NoError(t, err)
	_, err = bus.SubscribeFunc("stage:select", func(context.Context, any) error {
		got = append(got, "stage")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, newNote("object:added", "a")))
	require.NoError(t, bus.Publish(ctx, newNote("object:removed", "b")))

	assert.Equal(t, []string{"exact:a", "wild:a", "wild:b"}, got)
	assert.Equal(t, uint64(2), bus.Stats().EventsPublished)
	assert.Equal(t, uint64(3), bus.Stats().EventsDelivered)
}

func TestBus_PriorityThenSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	record := func(name string) HandlerFunc {
		return func(context.Context, any) error {
			order = append(order, name)
			return nil
		}
	}

	_, _ = bus.SubscribeFunc("stage:select", record("normal-1"))
	_, _ = bus.SubscribeFunc("stage:select", record("low"), WithPriority(PriorityLow))
	sub, _ := bus.SubscribeFunc("stage:*", record("critical"), WithPriority(PriorityCritical))
	assert.Equal(t, PriorityCritical, sub.Priority())
	_, _ = bus.SubscribeFunc("stage:select", record("normal-2"))

	require.NoError(t, bus.Publish(context.Background(), newNote("stage:select", "")))
	assert.Equal(t, []string{"critical", "normal-1", "normal-2", "low"}, order)
}

func TestBus_ReentrantPublishIsDepthFirst(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var order []string
	_, _ = bus.SubscribeFunc("stage:select", func(ctx context.Context, _ any) error {
		order = append(order, "select-1")
		return bus.Publish(ctx, newNote("stage:unselect", ""))
	})
	_, _ = bus.SubscribeFunc("stage:select", func(context.Context, any) error {
		order = append(order, "select-2")
		return nil
	})
	_, _ = bus.SubscribeFunc("stage:unselect", func(context.Context, any) error {
		order = append(order, "unselect")
		return nil
	})

	require.NoError(t, bus.Publish(ctx, newNote("stage:select", "")))
	assert.Equal(t, []string{"select-1", "unselect", "select-2"}, order)
}

func TestBus_HandlerFailuresAreIsolated(t *testing.T) {
	var reported []error
	bus := NewBus(WithErrorHandler(func(_ any, err error) {
		reported = append(reported, err)
	}))

	boom := errors.New("boom")
	delivered := 0
	_, _ = bus.SubscribeFunc("object:added", func(context.Context, any) error { return boom })
	_, _ = bus.SubscribeFunc("object:added", func(context.Context, any) error { panic("bad handler") })
	_, _ = bus.SubscribeFunc("object:added", func(context.Context, any) error {
		delivered++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), newNote("object:added", "")))

	assert.Equal(t, 1, delivered)
	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)
	var he *HandlerError
	assert.ErrorAs(t, reported[0], &he)
	assert.ErrorIs(t, reported[1], ErrHandlerPanic)

	stats := bus.Stats()
	assert.Equal(t, uint64(1), stats.HandlerErrors)
	assert.Equal(t, uint64(1), stats.HandlerPanics)
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []string
	var second Subscription
	_, err := bus.SubscribeFunc("stage:select", func(context.Context, any) error {
		got = append(got, "first")
		return bus.Unsubscribe(second)
	})
	require.NoError(t, err)
	second, err = bus.SubscribeFunc("stage:select", func(context.Context, any) error {
		got = append(got, "second")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, newNote("stage:select", "")))
	assert.Equal(t, []string{"first"}, got)
	assert.False(t, second.Active())
	assert.Equal(t, 1, bus.Stats().ActiveSubscribers)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	sub, err := bus.SubscribeFunc("object:added", func(context.Context, any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Unsubscribe(sub))
	assert.ErrorIs(t, bus.Unsubscribe(sub), ErrSubscriptionNotFound)
	assert.False(t, sub.Active())

	_ = bus.Publish(context.Background(), newNote("object:added", ""))
	assert.Zero(t, calls)
}

func TestBus_InvalidInput(t *testing.T) {
	bus := NewBus()

	_, err := bus.SubscribeFunc("", func(context.Context, any) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = bus.Subscribe("object:added", nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	assert.ErrorIs(t, bus.Publish(context.Background(), "not an event"), ErrInvalidEvent)
	assert.ErrorIs(t, bus.Publish(context.Background(), newNote("object:*", "")), ErrInvalidEvent)
}

func TestBus_PrometheusCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := NewBus(WithRegisterer(reg))
	_, _ = eb.SubscribeFunc("**", func(context.Context, any) error { return errors.New("nope") })

	ctx := context.Background()
	_ = eb.Publish(ctx, newNote("object:added", ""))
	_ = eb.Publish(ctx, newNote("object:added", ""))
	_ = eb.Publish(ctx, newNote("org.ekstep.shape:added", ""))

	b := eb.(*bus)
	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.publishedTotal.WithLabelValues("object", "added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.publishedTotal.WithLabelValues("org.ekstep.shape", "added")))
	assert.Equal(t, 3.0, testutil.ToFloat64(b.metrics.errorsTotal.WithLabelValues("object", "added"))+
		testutil.ToFloat64(b.metrics.errorsTotal.WithLabelValues("org.ekstep.shape", "added")))

	// A second bus on the same registerer shares the collectors.
	other := NewBus(WithRegisterer(reg)).(*bus)
	assert.Same(t, b.metrics.publishedTotal, other.metrics.publishedTotal)
}
