package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/logging"
	"social-post-copilot/internal/orchestrator"
)

// Server exposes the orchestration entry points over HTTP: chat message
// list, job progress, media upload, panel state and edits, and the notice
// feed.
type Server struct {
	exchange *orchestrator.Exchange
	uploader *orchestrator.Uploader
	panel    *orchestrator.PanelSync
	watcher  *orchestrator.JobWatcher
	sess     *orchestrator.SessionContext
	cache    gateway.SessionCache // optional
	notices  *NoticeLog
	auth     *AuthManager
	log      *zerolog.Logger

	media *mediaState
}

func NewServer(
	exchange *orchestrator.Exchange,
	uploader *orchestrator.Uploader,
	panel *orchestrator.PanelSync,
	watcher *orchestrator.JobWatcher,
	sess *orchestrator.SessionContext,
	cache gateway.SessionCache,
	notices *NoticeLog,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	slog := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		exchange: exchange,
		uploader: uploader,
		panel:    panel,
		watcher:  watcher,
		sess:     sess,
		cache:    cache,
		notices:  notices,
		auth:     auth,
		log:      &slog,
		media:    &mediaState{},
	}
	// The upload pipeline propagates every state transition of the media
	// collection through this callback, uploading included.
	uploader.OnChange(s.media.replace)
	return s
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware(s.sess))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", s.handleSend)
			r.Get("/messages", s.handleMessages)
			r.Post("/answers", s.handleAnswer)
			r.Post("/actions", s.handleQuickAction)
			r.Get("/jobs", s.handleJobs)
			r.Get("/conversations", s.handleConversations)
		})

		r.Post("/media", s.handleUpload)
		r.Get("/media", s.handleMedia)

		r.Route("/panel", func(r chi.Router) {
			r.Get("/", s.handlePanelState)
			r.Post("/open", s.handlePanelOpen)
			r.Post("/close", s.handlePanelClose)
			r.Post("/tab", s.handlePanelTab)
			r.Patch("/post", s.handlePostUpdate)
			r.Post("/post/schedule", s.handleSchedule)
			r.Post("/post/publish", s.handlePublish)
			r.Put("/post/images", s.handleReorderImages)
			r.Delete("/post/images/{mediaID}", s.handleRemoveImage)
		})

		r.Get("/notices", s.handleNotices)
	})

	return r
}

// requestLog stamps every request with a trace id and the current session id,
// then emits one line per request with the context fields attached.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		if sid := s.sess.SessionID(); sid != "" {
			ctx = logging.WithSessID(ctx, sid)
		}
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// mediaState mirrors the upload pipeline's collection for the web surface.
type mediaState struct {
	mu    sync.Mutex
	items []model.MediaItem
}

func (m *mediaState) replace(items []model.MediaItem) {
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
}

func (m *mediaState) snapshot() []model.MediaItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MediaItem, len(m.items))
	copy(out, m.items)
	return out
}

// byID returns the items matching the given server ids, in request order.
func (m *mediaState) byID(ids []string) []model.MediaItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MediaItem, 0, len(ids))
	for _, id := range ids {
		for i := range m.items {
			if m.items[i].ID == id {
				out = append(out, m.items[i])
				break
			}
		}
	}
	return out
}
