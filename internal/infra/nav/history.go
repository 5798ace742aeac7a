// Package nav provides an in-process navigation history implementing the
// orchestrator's Navigator contract: a single location (path + fragment)
// with synchronous change notification.
package nav

import (
	"strings"
	"sync"

	"social-post-copilot/internal/orchestrator"
)

type History struct {
	mu   sync.Mutex
	loc  orchestrator.Location
	subs []func(orchestrator.Location)
}

var _ orchestrator.Navigator = (*History)(nil)

// NewHistory starts at the given path; a "#fragment" suffix is split off.
func NewHistory(path string) *History {
	h := &History{}
	h.loc = parse(path)
	return h
}

func (h *History) Location() orchestrator.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loc
}

func (h *History) Navigate(path string) {
	next := parse(path)
	h.mu.Lock()
	if h.loc == next {
		h.mu.Unlock()
		return
	}
	h.loc = next
	h.mu.Unlock()
	h.notify(next)
}

func (h *History) SetFragment(fragment string) {
	h.mu.Lock()
	if h.loc.Fragment == fragment {
		h.mu.Unlock()
		return
	}
	h.loc.Fragment = fragment
	next := h.loc
	h.mu.Unlock()
	h.notify(next)
}

func (h *History) OnChange(fn func(orchestrator.Location)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

// notify runs listeners synchronously, outside the lock so a listener may
// navigate again (re-entrancy terminates because same-value writes are
// short-circuited).
func (h *History) notify(loc orchestrator.Location) {
	h.mu.Lock()
	subs := make([]func(orchestrator.Location), len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(loc)
	}
}

func parse(path string) orchestrator.Location {
	if i := strings.Index(path, "#"); i >= 0 {
		return orchestrator.Location{Path: path[:i], Fragment: path[i+1:]}
	}
	return orchestrator.Location{Path: path}
}
