package gateway

import (
	"context"
	"time"

	"social-post-copilot/internal/domain/model"
)

// Credentials identify the calling session against the backend service.
type Credentials struct {
	SessionID string
	AuthToken string
	CompanyID string
}

// Complete reports whether every field required for an authenticated write
// is present.
func (c Credentials) Complete() bool {
	return c.SessionID != "" && c.AuthToken != "" && c.CompanyID != ""
}

// JobQuery returns the active (running/waiting_user/error, unfinished) jobs
// for a session.
type JobQuery interface {
	ActiveJobs(ctx context.Context, sessionID string) ([]model.Job, error)
}

// MessageStore is the append-only per-session message log.
type MessageStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	ListConversations(ctx context.Context, companyID string) ([]model.Conversation, error)
}

// MediaUpload is one item of a batch upload request. TempID carries the
// client-generated placeholder id so the response can be correlated back.
type MediaUpload struct {
	TempID      string
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult echoes the temp id alongside the server-issued identity.
type UploadResult struct {
	TempID string
	ID     string
	URL    string
}

type MediaStore interface {
	UploadBatch(ctx context.Context, creds Credentials, batch []MediaUpload) ([]UploadResult, error)
	SetSelection(ctx context.Context, sessionID string, mediaIDs []string) error
	Delete(ctx context.Context, mediaID string) error
}

// ChatRequest is one user turn sent to the AI endpoint. AnswerTo is set for
// the suggestion/answer sub-flow responding to a job's user-input prompt.
type ChatRequest struct {
	Message  string
	Creds    Credentials
	MediaIDs []string
	AnswerTo string
}

// ChatReply carries the assistant reply, the resolved session id (issued on
// the first exchange of a session) and optionally the post it produced.
type ChatReply struct {
	Reply     string
	SessionID string
	Post      *model.Post
}

type AIEndpoint interface {
	Send(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

// PostUpdate applies partial edits to a post draft; nil fields are untouched.
type PostUpdate struct {
	Caption     *string
	Hashtags    []string
	ScheduledAt *time.Time
}

type PostStore interface {
	Find(ctx context.Context, postID string) (*model.Post, error)
	FindBySession(ctx context.Context, sessionID string) (*model.Post, error)
	Update(ctx context.Context, postID string, upd PostUpdate) error
	UpdateStatus(ctx context.Context, postID string, status model.PostStatus) error
	SetImagePositions(ctx context.Context, postID string, positions map[string]int) error
}

// SessionCache is an optional snapshot cache in front of the message store.
type SessionCache interface {
	StoreMessages(ctx context.Context, sessionID string, msgs []model.ChatMessage) error
	Messages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}
