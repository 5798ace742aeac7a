package model

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

type PanelTab string

const (
	PanelTabPreview  PanelTab = "preview"
	PanelTabEdit     PanelTab = "edit"
	PanelTabSchedule PanelTab = "schedule"
)

// ParsePanelTab normalizes a navigation fragment to a valid tab; anything
// missing or unknown resolves to preview.
func ParsePanelTab(s string) PanelTab {
	switch PanelTab(s) {
	case PanelTabEdit:
		return PanelTabEdit
	case PanelTabSchedule:
		return PanelTabSchedule
	default:
		return PanelTabPreview
	}
}

// PostImage is one image on a post draft, ordered by Position.
type PostImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Post is the draft produced by the AI exchange, edited through the panel.
type Post struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	Caption     string      `json:"caption"`
	Hashtags    []string    `json:"hashtags,omitempty"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	Status      PostStatus  `json:"status"`
	Images      []PostImage `json:"images,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Published reports whether the post has reached its terminal status, after
// which edit and schedule operations are rejected.
func (p *Post) Published() bool {
	return p != nil && p.Status == PostStatusPublished
}
