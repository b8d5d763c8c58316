package plugin

// State represents the load state of a plugin bundle.
type State int

// Bundle states.
const (
	// StateUnloaded - No load was requested.
	StateUnloaded State = iota

	// StateLoading - A load is in flight.
	StateLoading

	// StateLoaded - The bundle is registered and instantiable.
	StateLoaded

	// StateError - The last load attempt failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsDone returns true if no load is in flight.
func (s State) IsDone() bool {
	return s != StateLoading
}
