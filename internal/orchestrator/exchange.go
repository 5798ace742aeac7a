package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/metrics"
)

// DefaultSettleDelay is the pause between the exchange response and the
// dependent panel refresh. It accommodates storage propagation lag and is a
// heuristic, not a guarantee; keep it configurable.
const DefaultSettleDelay = 500 * time.Millisecond

// Exchange coordinates one chat round trip: optimistic local insert, remote
// AI call, then a strictly ordered refresh cascade (job watcher, message
// history, conversation list, panel). The message history is owned here and
// mutated only through these operations.
type Exchange struct {
	ai          gateway.AIEndpoint
	store       gateway.MessageStore
	media       gateway.MediaStore
	cache       gateway.SessionCache // optional, may be nil
	watcher     *JobWatcher
	panel       *PanelSync
	sess        *SessionContext
	nav         Navigator
	notifier    gateway.Notifier
	settleDelay time.Duration
	log         *zerolog.Logger

	mu            sync.Mutex
	sending       bool
	history       []model.ChatMessage
	conversations []model.Conversation
	onChange      func()
}

func NewExchange(
	ai gateway.AIEndpoint,
	store gateway.MessageStore,
	media gateway.MediaStore,
	cache gateway.SessionCache,
	watcher *JobWatcher,
	panel *PanelSync,
	sess *SessionContext,
	nav Navigator,
	notifier gateway.Notifier,
	settleDelay time.Duration,
	logger *zerolog.Logger,
) *Exchange {
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	elog := logger.With().Str("component", "Exchange").Logger()
	return &Exchange{
		ai:          ai,
		store:       store,
		media:       media,
		cache:       cache,
		watcher:     watcher,
		panel:       panel,
		sess:        sess,
		nav:         nav,
		notifier:    notifier,
		settleDelay: settleDelay,
		log:         &elog,
	}
}

// OnChange registers a callback fired after every history/conversation change.
func (e *Exchange) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Messages returns a copy of the visible message history.
func (e *Exchange) Messages() []model.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ChatMessage, len(e.history))
	copy(out, e.history)
	return out
}

// Conversations returns a copy of the conversation list.
func (e *Exchange) Conversations() []model.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Conversation, len(e.conversations))
	copy(out, e.conversations)
	return out
}

// SendMessage runs one full exchange. It rejects synchronously, without any
// network call, while another send is in flight, when the message is blank,
// or when any attached media item is not yet uploaded (attachments must be
// referenced by committed server identifiers).
func (e *Exchange) SendMessage(ctx context.Context, text string, media []model.MediaItem) error {
	text = strings.TrimSpace(text)

	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return domain.ErrSendInProgress
	}
	if text == "" {
		e.mu.Unlock()
		return domain.ErrEmptyMessage
	}
	for i := range media {
		if media[i].UploadState != model.UploadStateUploaded {
			e.mu.Unlock()
			return domain.ErrMediaNotUploaded
		}
	}
	e.sending = true
	e.mu.Unlock()

	mediaIDs := make([]string, 0, len(media))
	for i := range media {
		mediaIDs = append(mediaIDs, media[i].ID)
	}

	msgID := ulid.Make().String()
	e.appendOptimistic(msgID, text, mediaIDs)
	// Settlement runs on both outcomes: the loading flag is never left stuck.
	defer e.settleOptimistic(msgID)

	start := time.Now()
	reply, err := e.ai.Send(ctx, gateway.ChatRequest{
		Message:  text,
		Creds:    e.sess.Credentials(),
		MediaIDs: mediaIDs,
	})
	if err != nil {
		metrics.ObserveExchange("error", time.Since(start))
		e.log.Error().Err(err).Msg("ai exchange failed")
		e.notifier.Notify(gateway.NoticeError, "Your message could not be sent. Please try again.")
		return err
	}
	metrics.ObserveExchange("ok", time.Since(start))

	e.adoptSession(reply.SessionID)
	if len(mediaIDs) > 0 {
		// Persist which media the message used; losing this only degrades
		// the media catalog, so it never fails the exchange.
		if err := e.media.SetSelection(ctx, reply.SessionID, mediaIDs); err != nil {
			e.log.Warn().Err(err).Msg("media selection update failed")
		}
	}
	e.syncAfterExchange(ctx, reply.SessionID)
	return nil
}

// AnswerPrompt answers a waiting job's user-input prompt. It runs the same
// post-response synchronization sequence as SendMessage but does not insert
// an optimistic user message.
func (e *Exchange) AnswerPrompt(ctx context.Context, jobID, answer string) error {
	answer = strings.TrimSpace(answer)

	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return domain.ErrSendInProgress
	}
	if answer == "" {
		e.mu.Unlock()
		return domain.ErrEmptyMessage
	}
	e.sending = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.sending = false
		e.mu.Unlock()
	}()

	start := time.Now()
	reply, err := e.ai.Send(ctx, gateway.ChatRequest{
		Message:  answer,
		Creds:    e.sess.Credentials(),
		AnswerTo: jobID,
	})
	if err != nil {
		metrics.ObserveExchange("error", time.Since(start))
		e.log.Error().Err(err).Str("job_id", jobID).Msg("prompt answer failed")
		e.notifier.Notify(gateway.NoticeError, "Your answer could not be sent. Please try again.")
		return err
	}
	metrics.ObserveExchange("ok", time.Since(start))

	e.adoptSession(reply.SessionID)
	e.syncAfterExchange(ctx, reply.SessionID)
	return nil
}

// Quick actions are canned prompts reachable from the UI.
var quickPrompts = map[string]string{
	"instagram_post": "Crée un post Instagram pour mon entreprise",
	"linkedin_post":  "Crée un post LinkedIn pour mon entreprise",
	"post_ideas":     "Propose-moi trois idées de posts pour cette semaine",
}

// QuickAction sends the canned prompt registered under the given action name.
func (e *Exchange) QuickAction(ctx context.Context, action string) error {
	prompt, ok := quickPrompts[action]
	if !ok {
		return domain.ErrNotFound
	}
	return e.SendMessage(ctx, prompt, nil)
}

// RefreshHistory reloads the message history from the source of truth.
func (e *Exchange) RefreshHistory(ctx context.Context) error {
	sid := e.sess.SessionID()
	if sid == "" {
		return nil
	}
	return e.refreshMessages(ctx, sid)
}

func (e *Exchange) appendOptimistic(msgID, text string, mediaIDs []string) {
	e.mu.Lock()
	e.history = append(e.history, model.ChatMessage{
		ID:        msgID,
		SessionID: e.sess.SessionID(),
		IsAI:      false,
		Content:   text,
		MediaIDs:  mediaIDs,
		IsLoading: true,
		Timestamp: time.Now(),
	})
	e.mu.Unlock()
	e.fireChange()
}

// settleOptimistic clears the loading flag of the optimistic message if it
// is still present (a successful history refresh replaces it with the
// server copy) and releases the send slot.
func (e *Exchange) settleOptimistic(msgID string) {
	e.mu.Lock()
	for i := range e.history {
		if e.history[i].ID == msgID {
			e.history[i].IsLoading = false
			break
		}
	}
	e.sending = false
	e.mu.Unlock()
	e.fireChange()
}

// adoptSession persists the session id issued on the first exchange and
// redirects the view to that session's address.
func (e *Exchange) adoptSession(sessionID string) {
	if sessionID == "" || e.sess.SessionID() != "" {
		return
	}
	e.sess.SetSessionID(sessionID)
	if e.nav != nil {
		e.nav.Navigate(sessionPath(sessionID))
	}
	e.log.Info().Str("session_id", sessionID).Msg("session assigned by first exchange")
}

// syncAfterExchange runs the post-response refresh cascade. The steps are
// sequenced, not parallel: later steps assume the earlier writes are visible.
// Refresh failures are logged but do not abort the cascade.
func (e *Exchange) syncAfterExchange(ctx context.Context, sessionID string) {
	// The watcher outlives the call that triggered it. A caller's context may
	// end as soon as its request returns (net/http cancels it), while polling
	// must keep running until the jobs drain or StopPolling is called.
	if _, err := e.watcher.StartPolling(context.WithoutCancel(ctx), sessionID); err != nil {
		if !errors.Is(err, domain.ErrPollInProgress) {
			e.log.Warn().Err(err).Msg("could not start job watcher")
		}
	}

	if err := e.refreshMessages(ctx, sessionID); err != nil {
		e.log.Warn().Err(err).Msg("message history refresh failed")
	}
	if err := e.refreshConversations(ctx); err != nil {
		e.log.Warn().Err(err).Msg("conversation list refresh failed")
	}

	select {
	case <-time.After(e.settleDelay):
	case <-ctx.Done():
		return
	}

	if e.panel != nil {
		if err := e.panel.Refresh(ctx); err != nil {
			e.log.Warn().Err(err).Msg("panel refresh failed")
		}
	}
}

func (e *Exchange) refreshMessages(ctx context.Context, sessionID string) error {
	msgs, err := e.store.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.history = msgs
	e.mu.Unlock()
	e.fireChange()

	if e.cache != nil {
		if err := e.cache.StoreMessages(ctx, sessionID, msgs); err != nil {
			e.log.Debug().Err(err).Msg("session cache write failed")
		}
	}
	return nil
}

func (e *Exchange) refreshConversations(ctx context.Context) error {
	convs, err := e.store.ListConversations(ctx, e.sess.CompanyID())
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.conversations = convs
	e.mu.Unlock()
	e.fireChange()
	return nil
}

func (e *Exchange) fireChange() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
