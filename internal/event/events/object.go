package events

import "github.com/dshills/stagehand/internal/event/topic"

// ObjectKind names what happened to a plugin's object on the drawing surface.
type ObjectKind string

// Object kinds bridged from the drawing surface.
const (
	ObjectAdded      ObjectKind = "added"
	ObjectRemoved    ObjectKind = "removed"
	ObjectModified   ObjectKind = "modified"
	ObjectSelected   ObjectKind = "selected"
	ObjectUnselected ObjectKind = "unselected"
)

// ObjectKinds lists every bridged kind in a stable order.
var ObjectKinds = []ObjectKind{
	ObjectAdded,
	ObjectRemoved,
	ObjectModified,
	ObjectSelected,
	ObjectUnselected,
}

// ObjectNamespace is the namespace of generic object events.
const ObjectNamespace = "object"

// ObjectMeta identifies the plugin instance behind a surface event.
// Both fields are empty for events without a target (a cleared selection).
type ObjectMeta struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ObjectTopic returns the generic topic for a kind, e.g. "object:added".
func ObjectTopic(kind ObjectKind) topic.Topic {
	return topic.Join(ObjectNamespace, string(kind))
}

// PluginTopic returns the plugin-scoped topic for a kind,
// e.g. "org.ekstep.shape:added".
func PluginTopic(pluginType string, kind ObjectKind) topic.Topic {
	return topic.Join(pluginType, string(kind))
}
