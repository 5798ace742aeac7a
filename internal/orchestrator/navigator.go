package orchestrator

// Location is the navigation state the panel synchronizer derives from:
// a path plus an optional fragment (the part after "#").
type Location struct {
	Path     string
	Fragment string
}

// Navigator abstracts the navigation location (address bar). Navigation is
// the source of truth for panel open/closed state and for the active tab;
// local state is only a cache derived from it.
type Navigator interface {
	Location() Location
	// Navigate replaces the whole location. The path may carry a "#fragment".
	Navigate(path string)
	// SetFragment rewrites only the fragment of the current location.
	SetFragment(fragment string)
	// OnChange registers a listener invoked after every location change.
	OnChange(fn func(Location))
}

func sessionPath(sessionID string) string {
	return "/chat/" + sessionID
}

func postPath(sessionID string) string {
	return sessionPath(sessionID) + "/post"
}
