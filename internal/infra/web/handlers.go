package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
)

const maxUploadBytes = 32 << 20

// ---- chat ----

type sendRequest struct {
	Message  string   `json:"message"`
	MediaIDs []string `json:"media_ids,omitempty"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	attached := s.media.byID(req.MediaIDs)
	if len(attached) != len(req.MediaIDs) {
		http.Error(w, "unknown media id", http.StatusUnprocessableEntity)
		return
	}
	if err := s.exchange.SendMessage(r.Context(), req.Message, attached); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": s.exchange.Messages()})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.exchange.Messages()
	if len(msgs) == 0 {
		if sid := s.sess.SessionID(); sid != "" && s.cache != nil {
			if cached, err := s.cache.Messages(r.Context(), sid); err == nil {
				s.writeJSON(w, http.StatusOK, cached)
				return
			}
		}
		if err := s.exchange.RefreshHistory(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("history refresh failed")
		}
		msgs = s.exchange.Messages()
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

type answerRequest struct {
	JobID  string `json:"job_id"`
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.exchange.AnswerPrompt(r.Context(), req.JobID, req.Answer); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": s.exchange.Messages()})
}

func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.exchange.QuickAction(r.Context(), req.Action); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": s.exchange.Messages()})
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watcher.Jobs())
}

func (s *Server) handleConversations(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.exchange.Conversations())
}

// ---- media ----

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	files := make([]model.RawFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "unreadable file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			http.Error(w, "unreadable file", http.StatusBadRequest)
			return
		}
		files = append(files, model.RawFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	merged, err := s.uploader.AddFilesToUpload(r.Context(), files, s.media.snapshot())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleMedia(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.media.snapshot())
}

// ---- panel ----

type panelStateResponse struct {
	Open bool           `json:"open"`
	Tab  model.PanelTab `json:"tab"`
	Post *model.Post    `json:"post,omitempty"`
}

func (s *Server) handlePanelState(w http.ResponseWriter, _ *http.Request) {
	open, tab := s.panel.State()
	s.writeJSON(w, http.StatusOK, panelStateResponse{Open: open, Tab: tab, Post: s.panel.Post()})
}

func (s *Server) handlePanelOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.panel.Open(r.Context(), model.PanelTab(req.Tab))
	open, tab := s.panel.State()
	s.writeJSON(w, http.StatusOK, panelStateResponse{Open: open, Tab: tab, Post: s.panel.Post()})
}

func (s *Server) handlePanelClose(w http.ResponseWriter, _ *http.Request) {
	s.panel.Close()
	open, tab := s.panel.State()
	s.writeJSON(w, http.StatusOK, panelStateResponse{Open: open, Tab: tab})
}

func (s *Server) handlePanelTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.panel.SetTab(model.PanelTab(req.Tab)); err != nil {
		s.writeError(w, err)
		return
	}
	open, tab := s.panel.State()
	s.writeJSON(w, http.StatusOK, panelStateResponse{Open: open, Tab: tab})
}

type postUpdateBody struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	var req postUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.panel.UpdateCaption(r.Context(), req.Caption, req.Hashtags); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.panel.Post())
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		At time.Time `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.At.IsZero() {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.panel.Schedule(r.Context(), req.At); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.panel.Post())
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if err := s.panel.Publish(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.panel.Post())
}

func (s *Server) handleReorderImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageIDs []string `json:"image_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.panel.ReorderImages(r.Context(), req.ImageIDs); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.panel.Post())
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")
	if err := s.panel.RemoveImage(r.Context(), mediaID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.panel.Post())
}

func (s *Server) handleNotices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.notices.Recent())
}

// ---- plumbing ----

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encoding failed")
	}
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMediaNotUploaded),
		errors.Is(err, domain.ErrNoImageFiles):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSendInProgress),
		errors.Is(err, domain.ErrPollInProgress),
		errors.Is(err, domain.ErrPostPublished):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMissingCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
