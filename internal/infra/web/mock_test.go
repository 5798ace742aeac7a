package web

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/orchestrator"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockAI struct {
	mu    sync.Mutex
	reply gateway.ChatReply
	err   error
	calls int
}

var _ gateway.AIEndpoint = (*mockAI)(nil)

func (m *mockAI) Send(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	reply := m.reply
	return &reply, nil
}

type mockMessageStore struct {
	mu    sync.Mutex
	msgs  []model.ChatMessage
	convs []model.Conversation
}

var _ gateway.MessageStore = (*mockMessageStore)(nil)

func (m *mockMessageStore) ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ChatMessage, len(m.msgs))
	copy(out, m.msgs)
	return out, nil
}

func (m *mockMessageStore) ListConversations(ctx context.Context, companyID string) ([]model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Conversation, len(m.convs))
	copy(out, m.convs)
	return out, nil
}

type mockMediaStore struct {
	mu      sync.Mutex
	results []gateway.UploadResult
	deleted []string
}

var _ gateway.MediaStore = (*mockMediaStore)(nil)

func (m *mockMediaStore) UploadBatch(ctx context.Context, creds gateway.Credentials, batch []gateway.MediaUpload) ([]gateway.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results != nil {
		return m.results, nil
	}
	// Echo every temp id back as committed.
	out := make([]gateway.UploadResult, 0, len(batch))
	for _, item := range batch {
		out = append(out, gateway.UploadResult{
			TempID: item.TempID,
			ID:     "srv_" + strings.TrimPrefix(item.TempID, model.LocalIDPrefix),
			URL:    "https://cdn/" + item.Name,
		})
	}
	return out, nil
}

func (m *mockMediaStore) SetSelection(ctx context.Context, sessionID string, mediaIDs []string) error {
	return nil
}

func (m *mockMediaStore) Delete(ctx context.Context, mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, mediaID)
	return nil
}

type mockPostStore struct {
	mu        sync.Mutex
	bySession map[string]*model.Post
}

var _ gateway.PostStore = (*mockPostStore)(nil)

func newMockPostStore() *mockPostStore {
	return &mockPostStore{bySession: map[string]*model.Post{}}
}

func (m *mockPostStore) Find(ctx context.Context, postID string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.bySession {
		if p.ID == postID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPostStore) FindBySession(ctx context.Context, sessionID string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.bySession[sessionID]; p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockPostStore) Update(ctx context.Context, postID string, upd gateway.PostUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.bySession {
		if p.ID == postID {
			if upd.Caption != nil {
				p.Caption = *upd.Caption
			}
			if upd.Hashtags != nil {
				p.Hashtags = upd.Hashtags
			}
			if upd.ScheduledAt != nil {
				p.ScheduledAt = upd.ScheduledAt
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockPostStore) UpdateStatus(ctx context.Context, postID string, status model.PostStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.bySession {
		if p.ID == postID {
			p.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockPostStore) SetImagePositions(ctx context.Context, postID string, positions map[string]int) error {
	return nil
}

type mockJobQuery struct {
	mu    sync.Mutex
	jobs  []model.Job
	calls int
}

var _ gateway.JobQuery = (*mockJobQuery)(nil)

func (m *mockJobQuery) ActiveJobs(ctx context.Context, sessionID string) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]model.Job, len(m.jobs))
	copy(out, m.jobs)
	return out, nil
}

func (m *mockJobQuery) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockNav is a plain in-process navigator.
type mockNav struct {
	mu   sync.Mutex
	loc  orchestrator.Location
	subs []func(orchestrator.Location)
}

var _ orchestrator.Navigator = (*mockNav)(nil)

func newMockNav(path string) *mockNav {
	return &mockNav{loc: orchestrator.Location{Path: path}}
}

func (n *mockNav) Location() orchestrator.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *mockNav) Navigate(path string) {
	next := orchestrator.Location{Path: path}
	if i := strings.Index(path, "#"); i >= 0 {
		next = orchestrator.Location{Path: path[:i], Fragment: path[i+1:]}
	}
	n.mu.Lock()
	if n.loc == next {
		n.mu.Unlock()
		return
	}
	n.loc = next
	subs := append([]func(orchestrator.Location){}, n.subs...)
	n.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

func (n *mockNav) SetFragment(fragment string) {
	n.mu.Lock()
	if n.loc.Fragment == fragment {
		n.mu.Unlock()
		return
	}
	n.loc.Fragment = fragment
	next := n.loc
	subs := append([]func(orchestrator.Location){}, n.subs...)
	n.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

func (n *mockNav) OnChange(fn func(orchestrator.Location)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}
