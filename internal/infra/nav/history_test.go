package nav

import (
	"testing"

	"social-post-copilot/internal/orchestrator"
)

func TestNewHistory_SplitsFragment(t *testing.T) {
	h := NewHistory("/chat/s1/post#edit")
	loc := h.Location()
	if loc.Path != "/chat/s1/post" || loc.Fragment != "edit" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestNavigate_NotifiesSubscribers(t *testing.T) {
	h := NewHistory("/chat")
	var got []orchestrator.Location
	h.OnChange(func(loc orchestrator.Location) { got = append(got, loc) })

	h.Navigate("/chat/s1#preview")
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].Path != "/chat/s1" || got[0].Fragment != "preview" {
		t.Fatalf("unexpected location %+v", got[0])
	}
}

func TestNavigate_SameLocationIsSilent(t *testing.T) {
	h := NewHistory("/chat/s1#edit")
	calls := 0
	h.OnChange(func(orchestrator.Location) { calls++ })

	h.Navigate("/chat/s1#edit")
	h.SetFragment("edit")
	if calls != 0 {
		t.Fatalf("same-value writes must be silent, got %d notifications", calls)
	}
}

func TestSetFragment_KeepsPath(t *testing.T) {
	h := NewHistory("/chat/s1/post#preview")
	h.SetFragment("schedule")
	loc := h.Location()
	if loc.Path != "/chat/s1/post" || loc.Fragment != "schedule" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestNotify_ReentrancyTerminates(t *testing.T) {
	h := NewHistory("/chat/s1/post#bogus")
	h.OnChange(func(loc orchestrator.Location) {
		// A listener normalizing the fragment navigates again; the
		// same-value short circuit keeps this from looping.
		h.SetFragment("preview")
	})
	h.SetFragment("weird")
	if loc := h.Location(); loc.Fragment != "preview" {
		t.Fatalf("fragment %q", loc.Fragment)
	}
}
