package stage

import (
	"context"
	"fmt"

	"github.com/dshills/stagehand/internal/event"
	"github.com/dshills/stagehand/internal/event/events"
	"github.com/dshills/stagehand/internal/surface"
)

// rawObjectEvents maps the raw surface events to object event kinds.
var rawObjectEvents = []struct {
	name string
	kind events.ObjectKind
}{
	{surface.EventObjectModified, events.ObjectModified},
	{surface.EventObjectSelected, events.ObjectSelected},
	{surface.EventSelectionCleared, events.ObjectUnselected},
	{surface.EventObjectAdded, events.ObjectAdded},
	{surface.EventObjectRemoved, events.ObjectRemoved},
}

// RegisterEvents subscribes the manager to stage:select and bridges the raw
// object events of the shared surface to the bus. The manager handles
// stage:select ahead of other subscribers, so they observe the switched
// scene. Calling it again has no effect. ctx is passed to every bridged
// publish.
func (m *Manager) RegisterEvents(ctx context.Context) error {
	if m.onAdded != nil {
		return nil
	}

	_, err := m.subscriber.Subscribe(events.TopicStageSelect, event.PayloadHandlerOf(
		func(ctx context.Context, sel events.StageSelect) error {
			return m.SelectStage(ctx, sel.StageID)
		}), event.WithPriority(event.PriorityCritical))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicStageSelect, err)
	}

	for _, raw := range rawObjectEvents {
		kind := raw.kind
		h := func(e surface.Event) {
			if err := m.DispatchObjectEvent(ctx, kind, e); err != nil {
				m.log.Error("dispatch object %s: %v", kind, err)
			}
		}
		if raw.name == surface.EventObjectAdded {
			m.onAdded = h
		}
		m.surface.On(raw.name, h)
	}
	return nil
}

// DispatchObjectEvent publishes object:<kind> for a raw surface event and,
// when the target's plugin type resolves, <type>:<kind>. Both carry the
// target id and type.
func (m *Manager) DispatchObjectEvent(ctx context.Context, kind events.ObjectKind, e surface.Event) error {
	var id string
	if e.Target != nil {
		id = e.Target.ID
	}
	meta := events.ObjectMeta{ID: id, Type: m.plugins.ResolveType(id)}

	if err := m.bus.Publish(ctx, event.NewEvent(events.ObjectTopic(kind), meta, eventSource)); err != nil {
		return err
	}
	if meta.Type == "" {
		return nil
	}
	return m.bus.Publish(ctx, event.NewEvent(events.PluginTopic(meta.Type, kind), meta, eventSource))
}
