package surface

// Raw surface event names.
const (
	EventObjectAdded      = "object:added"
	EventObjectRemoved    = "object:removed"
	EventObjectModified   = "object:modified"
	EventObjectSelected   = "object:selected"
	EventSelectionCleared = "selection:cleared"
	EventCleared          = "canvas:cleared"
)

// Default dimension of surfaces acquired for stage loading.
const (
	DefaultWidth  = 720
	DefaultHeight = 405
)

// Object is a visual object placed on a surface by a plugin instance.
// ID is the id of the owning plugin instance.
type Object struct {
	ID    string
	Type  string
	Props map[string]any
}

// Event is a raw surface event. Target is nil for events without a subject,
// such as a cleared selection.
type Event struct {
	Name   string
	Target *Object
}

// Handler receives raw surface events.
type Handler func(Event)

// Options configures a new surface.
type Options struct {
	Width      int
	Height     int
	Background string
}

// DefaultOptions returns the options used for stage load surfaces.
func DefaultOptions() Options {
	return Options{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: "#FFFFFF",
	}
}

// Surface is the drawing surface capability the stage manager depends on.
type Surface interface {
	// ID returns the surface identifier (the stage id for load surfaces).
	ID() string

	// Add places an object on top of the stack and emits object:added.
	Add(obj *Object)

	// Remove drops the object with the given id and emits object:removed.
	Remove(id string) bool

	// Modify merges props into an object and emits object:modified.
	Modify(id string, props map[string]any) bool

	// Select makes the object the active selection and emits object:selected.
	Select(id string) bool

	// ClearSelection drops the active selection and emits selection:cleared.
	ClearSelection()

	// Clear destroys every object and emits canvas:cleared. Listeners stay
	// registered; callers that rebind must manage them with Off and On.
	Clear()

	// Objects returns the objects in stacking order, bottom first.
	Objects() []*Object

	// Len returns the number of objects.
	Len() int

	// On registers a handler for a raw event name.
	On(name string, h Handler)

	// Off removes every handler registered for the event name.
	Off(name string)

	// Listeners returns the number of handlers registered for the event name.
	Listeners(name string) int
}

// Factory creates a surface with the given id.
type Factory func(id string, opts Options) Surface
