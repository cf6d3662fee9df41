package plugin

// State represents the lifecycle state of the extension.
type State int

// Extension states.
const (
	// StateUnloaded - Extension is not loaded.
	StateUnloaded State = iota

	// StateLoading - Extension is registering its hooks.
	StateLoading

	// StateLoaded - Extension is loaded and its hooks are live.
	StateLoaded

	// StateUnloading - Extension is removing its hooks.
	StateUnloading

	// StateError - Extension failed to load.
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
	case StateUnloading:
		return "unloading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the extension's hooks are live.
func (s State) IsUsable() bool {
	return s == StateLoaded
}
