package orchestrator

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/metrics"
)

var defaultPostPathPattern = regexp.MustCompile(`^/chat/[^/]+/post$`)

// PanelSync keeps the detail panel's open/closed and tab state consistent
// with the navigation location and with imperative open/close requests.
// Navigation is the source of truth for both; the local fields are a derived
// cache, never written without a corresponding navigation write.
type PanelSync struct {
	nav      Navigator
	posts    gateway.PostStore
	media    gateway.MediaStore
	sess     *SessionContext
	notifier gateway.Notifier
	pattern  *regexp.Regexp
	log      *zerolog.Logger

	mu       sync.Mutex
	open     bool
	tab      model.PanelTab
	post     *model.Post
	onChange func()
}

func NewPanelSync(
	nav Navigator,
	posts gateway.PostStore,
	media gateway.MediaStore,
	sess *SessionContext,
	notifier gateway.Notifier,
	postPathPattern string,
	logger *zerolog.Logger,
) (*PanelSync, error) {
	pattern := defaultPostPathPattern
	if postPathPattern != "" {
		var err error
		pattern, err = regexp.Compile(postPathPattern)
		if err != nil {
			return nil, err
		}
	}
	plog := logger.With().Str("component", "PanelSync").Logger()
	return &PanelSync{
		nav:      nav,
		posts:    posts,
		media:    media,
		sess:     sess,
		notifier: notifier,
		pattern:  pattern,
		tab:      model.PanelTabPreview,
		log:      &plog,
	}, nil
}

// Bind subscribes the synchronizer to navigation changes. Each change runs a
// bounded sync pass.
func (p *PanelSync) Bind() {
	p.nav.OnChange(func(loc Location) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p.syncWith(ctx, loc, "navigation")
	})
}

// OnChange registers a callback fired after every panel state change.
func (p *PanelSync) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// State returns the current open flag and active tab.
func (p *PanelSync) State() (bool, model.PanelTab) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open, p.tab
}

// Post returns a copy of the current post snapshot, or nil.
func (p *PanelSync) Post() *model.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.post == nil {
		return nil
	}
	cp := *p.post
	cp.Images = append([]model.PostImage(nil), p.post.Images...)
	return &cp
}

// Sync runs one synchronization pass against the current location.
func (p *PanelSync) Sync(ctx context.Context) {
	p.syncWith(ctx, p.nav.Location(), "manual")
}

// syncWith corrects local state to match the location. A stale local read
// never overrides navigation: whenever the derived open value or the tab
// fragment disagrees with local state, local state loses.
func (p *PanelSync) syncWith(ctx context.Context, loc Location, trigger string) {
	shouldOpen := p.pattern.MatchString(loc.Path)
	tab := model.ParsePanelTab(loc.Fragment)

	p.mu.Lock()
	changed := p.open != shouldOpen
	p.open = shouldOpen
	if shouldOpen && p.tab != tab {
		p.tab = tab
		changed = true
	}
	needFetch := shouldOpen && p.post == nil
	p.mu.Unlock()

	// Normalize a missing or invalid fragment back into the address.
	if shouldOpen && loc.Fragment != string(tab) {
		p.nav.SetFragment(string(tab))
	}
	if needFetch {
		if err := p.Refresh(ctx); err != nil {
			p.log.Warn().Err(err).Msg("post lookup on panel open failed")
		}
	}
	if changed {
		p.fireChange()
	}
	metrics.IncPanelSync(trigger)
}

// Open requests the panel via a navigation write; the sync pass triggered by
// the navigation change does the actual opening.
func (p *PanelSync) Open(ctx context.Context, tab model.PanelTab) {
	tab = model.ParsePanelTab(string(tab))
	p.mu.Lock()
	if p.post.Published() && tab != model.PanelTabPreview {
		tab = model.PanelTabPreview
	}
	p.mu.Unlock()
	p.nav.Navigate(postPath(p.sess.SessionID()) + "#" + string(tab))
	p.Sync(ctx)
}

// Close navigates back to the session address, which closes the panel on the
// next sync pass.
func (p *PanelSync) Close() {
	p.nav.Navigate(sessionPath(p.sess.SessionID()))
}

// SetTab switches the active tab, rewriting the navigation fragment so the
// tab stays stored in exactly one authoritative place. Once the post is
// published only preview remains reachable.
func (p *PanelSync) SetTab(tab model.PanelTab) error {
	tab = model.ParsePanelTab(string(tab))
	p.mu.Lock()
	if p.post.Published() && tab != model.PanelTabPreview {
		p.mu.Unlock()
		p.notifier.Notify(gateway.NoticeError, "This post is published and can no longer be edited.")
		return domain.ErrPostPublished
	}
	p.tab = tab
	p.mu.Unlock()
	p.nav.SetFragment(string(tab))
	p.fireChange()
	return nil
}

// Refresh populates the post snapshot, resolving the post through the
// current chat session when its id is not known yet. A session without a
// post is not an error.
func (p *PanelSync) Refresh(ctx context.Context) error {
	p.mu.Lock()
	postID := ""
	if p.post != nil {
		postID = p.post.ID
	}
	p.mu.Unlock()

	var (
		post *model.Post
		err  error
	)
	if postID != "" {
		post, err = p.posts.Find(ctx, postID)
	} else {
		sid := p.sess.SessionID()
		if sid == "" {
			return nil
		}
		post, err = p.posts.FindBySession(ctx, sid)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	p.mu.Lock()
	p.post = post
	p.mu.Unlock()
	p.fireChange()
	return nil
}

// UpdateCaption writes the caption and hashtags remotely, then applies them
// to the local snapshot. The snapshot is never updated before the remote
// write succeeds.
func (p *PanelSync) UpdateCaption(ctx context.Context, caption string, hashtags []string) error {
	post, err := p.editable()
	if err != nil {
		return err
	}
	upd := gateway.PostUpdate{Caption: &caption, Hashtags: hashtags}
	if err := p.posts.Update(ctx, post.ID, upd); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The caption could not be saved.")
		return err
	}
	p.mu.Lock()
	if p.post != nil {
		p.post.Caption = caption
		p.post.Hashtags = hashtags
	}
	p.mu.Unlock()
	p.fireChange()
	return nil
}

// Schedule sets the publication date and moves the post to scheduled.
func (p *PanelSync) Schedule(ctx context.Context, at time.Time) error {
	post, err := p.editable()
	if err != nil {
		return err
	}
	if err := p.posts.Update(ctx, post.ID, gateway.PostUpdate{ScheduledAt: &at}); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The post could not be scheduled.")
		return err
	}
	if err := p.posts.UpdateStatus(ctx, post.ID, model.PostStatusScheduled); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The post could not be scheduled.")
		return err
	}
	p.mu.Lock()
	if p.post != nil {
		p.post.ScheduledAt = &at
		p.post.Status = model.PostStatusScheduled
	}
	p.mu.Unlock()
	p.fireChange()
	p.notifier.Notify(gateway.NoticeSuccess, "Post scheduled.")
	return nil
}

// Publish moves the post to its terminal status.
func (p *PanelSync) Publish(ctx context.Context) error {
	post, err := p.editable()
	if err != nil {
		return err
	}
	if err := p.posts.UpdateStatus(ctx, post.ID, model.PostStatusPublished); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The post could not be published.")
		return err
	}
	p.mu.Lock()
	if p.post != nil {
		p.post.Status = model.PostStatusPublished
	}
	p.mu.Unlock()
	p.fireChange()
	p.notifier.Notify(gateway.NoticeSuccess, "Post published.")
	return nil
}

// ReorderImages persists the given order, then reorders the local snapshot.
func (p *PanelSync) ReorderImages(ctx context.Context, orderedIDs []string) error {
	post, err := p.editable()
	if err != nil {
		return err
	}
	positions := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		positions[id] = i
	}
	if err := p.posts.SetImagePositions(ctx, post.ID, positions); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The image order could not be saved.")
		return err
	}
	p.mu.Lock()
	if p.post != nil {
		for i := range p.post.Images {
			if pos, ok := positions[p.post.Images[i].ID]; ok {
				p.post.Images[i].Position = pos
			}
		}
		sortImages(p.post.Images)
	}
	p.mu.Unlock()
	p.fireChange()
	return nil
}

// RemoveImage deletes the image remotely, then drops it from the snapshot.
func (p *PanelSync) RemoveImage(ctx context.Context, mediaID string) error {
	if _, err := p.editable(); err != nil {
		return err
	}
	if err := p.media.Delete(ctx, mediaID); err != nil {
		p.notifier.Notify(gateway.NoticeError, "The image could not be deleted.")
		return err
	}
	p.mu.Lock()
	if p.post != nil {
		images := p.post.Images[:0]
		for _, img := range p.post.Images {
			if img.ID != mediaID {
				images = append(images, img)
			}
		}
		p.post.Images = images
	}
	p.mu.Unlock()
	p.fireChange()
	return nil
}

// editable returns the current post when edits are still allowed.
func (p *PanelSync) editable() (*model.Post, error) {
	p.mu.Lock()
	if p.post == nil {
		p.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if p.post.Published() {
		p.mu.Unlock()
		p.notifier.Notify(gateway.NoticeError, "This post is published and can no longer be edited.")
		return nil, domain.ErrPostPublished
	}
	cp := *p.post
	p.mu.Unlock()
	return &cp, nil
}

func (p *PanelSync) fireChange() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func sortImages(images []model.PostImage) {
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Position < images[j].Position
	})
}
