package surface

import "maps"

// Canvas is an in-memory Surface. It is not safe for concurrent use.
type Canvas struct {
	id       string
	opts     Options
	objects  []*Object
	selected *Object
	handlers map[string][]Handler
}

// NewCanvas creates an empty canvas.
func NewCanvas(id string, opts Options) *Canvas {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	return &Canvas{
		id:       id,
		opts:     opts,
		handlers: make(map[string][]Handler),
	}
}

// NewFactory returns a Factory producing Canvas surfaces.
func NewFactory() Factory {
	return func(id string, opts Options) Surface {
		return NewCanvas(id, opts)
	}
}

// ID returns the canvas id.
func (c *Canvas) ID() string {
	return c.id
}

// Options returns the canvas options.
func (c *Canvas) Options() Options {
	return c.opts
}

// Add places obj on top of the stack.
func (c *Canvas) Add(obj *Object) {
	if obj == nil {
		return
	}
	c.objects = append(c.objects, obj)
	c.emit(Event{Name: EventObjectAdded, Target: obj})
}

// Remove drops the object with the given id.
func (c *Canvas) Remove(id string) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	obj := c.objects[idx]
	c.objects = append(c.objects[:idx], c.objects[idx+1:]...)
	if c.selected == obj {
		c.selected = nil
	}
	c.emit(Event{Name: EventObjectRemoved, Target: obj})
	return true
}

// Modify merges props into the object with the given id.
func (c *Canvas) Modify(id string, props map[string]any) bool {
	obj := c.Object(id)
	if obj == nil {
		return false
	}
	if obj.Props == nil {
		obj.Props = make(map[string]any, len(props))
	}
	maps.Copy(obj.Props, props)
	c.emit(Event{Name: EventObjectModified, Target: obj})
	return true
}

// Select makes the object with the given id the active selection.
func (c *Canvas) Select(id string) bool {
	obj := c.Object(id)
	if obj == nil {
		return false
	}
	c.selected = obj
	c.emit(Event{Name: EventObjectSelected, Target: obj})
	return true
}

// ClearSelection drops the active selection.
func (c *Canvas) ClearSelection() {
	c.selected = nil
	c.emit(Event{Name: EventSelectionCleared})
}

// Selected returns the active selection, or nil.
func (c *Canvas) Selected() *Object {
	return c.selected
}

// Clear destroys every object without emitting per-object removals.
func (c *Canvas) Clear() {
	c.objects = nil
	c.selected = nil
	c.emit(Event{Name: EventCleared})
}

// Object returns the object with the given id, or nil.
func (c *Canvas) Object(id string) *Object {
	if idx := c.indexOf(id); idx >= 0 {
		return c.objects[idx]
	}
	return nil
}

// Objects returns a copy of the object stack, bottom first.
func (c *Canvas) Objects() []*Object {
	out := make([]*Object, len(c.objects))
	copy(out, c.objects)
	return out
}

// Len returns the number of objects.
func (c *Canvas) Len() int {
	return len(c.objects)
}

// On registers a handler for a raw event name.
func (c *Canvas) On(name string, h Handler) {
	if h == nil {
		return
	}
	c.handlers[name] = append(c.handlers[name], h)
}

// Off removes every handler registered for the event name.
func (c *Canvas) Off(name string) {
	delete(c.handlers, name)
}

// Listeners returns the number of handlers registered for the event name.
func (c *Canvas) Listeners(name string) int {
	return len(c.handlers[name])
}

func (c *Canvas) indexOf(id string) int {
	for i, obj := range c.objects {
		if obj.ID == id {
			return i
		}
	}
	return -1
}

func (c *Canvas) emit(e Event) {
	// Copy so a handler calling On/Off does not disturb this dispatch.
	hs := append([]Handler(nil), c.handlers[e.Name]...)
	for _, h := range hs {
		h(e)
	}
}
