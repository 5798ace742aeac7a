package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testSession() *SessionContext {
	s := NewSessionContext("tok-1", "co-1")
	s.SetSessionID("s1")
	return s
}

// ---- job query ----

type jobStep struct {
	jobs []model.Job
	err  error
}

// fakeJobQuery replays a scripted sequence of query results; once the script
// is exhausted it keeps returning the last step.
type fakeJobQuery struct {
	mu    sync.Mutex
	steps []jobStep
	calls int
}

var _ gateway.JobQuery = (*fakeJobQuery)(nil)

func (f *fakeJobQuery) ActiveJobs(ctx context.Context, sessionID string) ([]model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if len(f.steps) == 0 {
		return nil, nil
	}
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	return f.steps[i].jobs, f.steps[i].err
}

func (f *fakeJobQuery) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func runningJob(id string) model.Job {
	return model.Job{ID: id, SessionID: "s1", Status: model.JobStatusRunning, Type: "generation", CurrentMsg: "working"}
}

// ---- message store ----

type fakeMessageStore struct {
	mu      sync.Mutex
	msgs    []model.ChatMessage
	convs   []model.Conversation
	listErr error
}

var _ gateway.MessageStore = (*fakeMessageStore)(nil)

func (f *fakeMessageStore) ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.ChatMessage, len(f.msgs))
	copy(out, f.msgs)
	return out, nil
}

func (f *fakeMessageStore) ListConversations(ctx context.Context, companyID string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Conversation, len(f.convs))
	copy(out, f.convs)
	return out, nil
}

// ---- media store ----

type fakeMediaStore struct {
	mu         sync.Mutex
	results    []gateway.UploadResult
	err        error
	batches    [][]gateway.MediaUpload
	deleted    []string
	selections map[string][]string
}

var _ gateway.MediaStore = (*fakeMediaStore)(nil)

func (f *fakeMediaStore) UploadBatch(ctx context.Context, creds gateway.Credentials, batch []gateway.MediaUpload) ([]gateway.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]gateway.MediaUpload, len(batch))
	copy(cp, batch)
	f.batches = append(f.batches, cp)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeMediaStore) SetSelection(ctx context.Context, sessionID string, mediaIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selections == nil {
		f.selections = map[string][]string{}
	}
	f.selections[sessionID] = append([]string(nil), mediaIDs...)
	return nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, mediaID)
	return nil
}

func (f *fakeMediaStore) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// ---- AI endpoint ----

type fakeAI struct {
	mu    sync.Mutex
	reply gateway.ChatReply
	err   error
	calls []gateway.ChatRequest
	// block, when set, is received from before each call returns.
	block chan struct{}
}

var _ gateway.AIEndpoint = (*fakeAI)(nil)

func (f *fakeAI) Send(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	reply := f.reply
	err := f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAI) call(i int) gateway.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// ---- post store ----

type memPostStore struct {
	mu                 sync.Mutex
	byID               map[string]*model.Post
	bySession          map[string]*model.Post
	updateErr          error
	findBySessionCalls int
}

var _ gateway.PostStore = (*memPostStore)(nil)

func newMemPostStore() *memPostStore {
	return &memPostStore{
		byID:      map[string]*model.Post{},
		bySession: map[string]*model.Post{},
	}
}

func (m *memPostStore) put(p *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = p
	if p.SessionID != "" {
		m.bySession[p.SessionID] = p
	}
}

func (m *memPostStore) Find(ctx context.Context, postID string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.byID[postID]; p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPostStore) FindBySession(ctx context.Context, sessionID string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findBySessionCalls++
	if p := m.bySession[sessionID]; p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPostStore) Update(ctx context.Context, postID string, upd gateway.PostUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	p := m.byID[postID]
	if p == nil {
		return domain.ErrNotFound
	}
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

func (m *memPostStore) UpdateStatus(ctx context.Context, postID string, status model.PostStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[postID]
	if p == nil {
		return domain.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memPostStore) SetImagePositions(ctx context.Context, postID string, positions map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[postID]
	if p == nil {
		return domain.ErrNotFound
	}
	for i := range p.Images {
		if pos, ok := positions[p.Images[i].ID]; ok {
			p.Images[i].Position = pos
		}
	}
	return nil
}

func (m *memPostStore) sessionLookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findBySessionCalls
}

// ---- notifier ----

type recordNotifier struct {
	mu      sync.Mutex
	notices []string
}

var _ gateway.Notifier = (*recordNotifier)(nil)

func (n *recordNotifier) Notify(level gateway.NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, string(level)+": "+message)
}

func (n *recordNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func (n *recordNotifier) contains(substr string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.notices {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// ---- navigator ----

// fakeNav mirrors the infra/nav history semantics without the import.
type fakeNav struct {
	mu   sync.Mutex
	loc  Location
	subs []func(Location)
}

var _ Navigator = (*fakeNav)(nil)

func newFakeNav(path string) *fakeNav {
	n := &fakeNav{}
	n.loc = parseLoc(path)
	return n
}

func parseLoc(path string) Location {
	if i := strings.Index(path, "#"); i >= 0 {
		return Location{Path: path[:i], Fragment: path[i+1:]}
	}
	return Location{Path: path}
}

func (n *fakeNav) Location() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *fakeNav) Navigate(path string) {
	next := parseLoc(path)
	n.mu.Lock()
	if n.loc == next {
		n.mu.Unlock()
		return
	}
	n.loc = next
	n.mu.Unlock()
	n.notify(next)
}

func (n *fakeNav) SetFragment(fragment string) {
	n.mu.Lock()
	if n.loc.Fragment == fragment {
		n.mu.Unlock()
		return
	}
	n.loc.Fragment = fragment
	next := n.loc
	n.mu.Unlock()
	n.notify(next)
}

func (n *fakeNav) OnChange(fn func(Location)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

func (n *fakeNav) notify(loc Location) {
	n.mu.Lock()
	subs := make([]func(Location), len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()
	for _, fn := range subs {
		fn(loc)
	}
}
