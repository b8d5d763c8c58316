// Package event provides the synchronous event bus that connects the stage
// manager, the drawing surface bridge and plugins.
//
// The bus keeps an explicit subscriber list per topic pattern. Publishing runs
// every matching handler in the publisher's goroutine, in priority order, before
// Publish returns. There is no background delivery: the scene runtime is
// single-threaded and cooperative, so no two handlers ever run at the same time.
//
// # Re-entrancy
//
// A handler may publish further events. Nested events are delivered depth-first,
// before the outer Publish continues with its remaining handlers. This is the
// expected way for one notification to trigger another (for example stage:select
// causing stage:unselect for the outgoing stage).
//
// # Topics
//
// Topics are colon-separated names such as "stage:select" or "object:added", see
// package topic. Subscriptions may use wildcards:
//
//	object:*   every generic object event
//	*:added    every added event, generic or plugin-scoped
//
// # Usage
//
//	bus := event.NewBus()
//
//	sub, err := event.SubscribePayload(bus, events.TopicStageSelect,
//	    func(ctx context.Context, p events.StageSelect) error {
//	        return manager.SelectStage(ctx, p.StageID)
//	    })
//
//	evt := event.NewEvent(events.TopicStageSelect, events.StageSelect{StageID: "s1"}, "stage")
//	_ = bus.Publish(ctx, evt)
//
// # Failure isolation
//
// Handler errors and panics are recovered, counted and passed to the configured
// ErrorHandler. They never abort delivery to the remaining handlers and are not
// returned to the publisher.
package event
