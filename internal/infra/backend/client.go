// Package backend implements the gateway ports against the backend service's
// REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
)

var (
	_ gateway.JobQuery     = (*Client)(nil)
	_ gateway.MessageStore = (*Client)(nil)
	_ gateway.MediaStore   = (*Client)(nil)
	_ gateway.AIEndpoint   = (*Client)(nil)
	_ gateway.PostStore    = (*Client)(nil)
)

// Client is a thin JSON client for the backend service. One instance serves
// every gateway port; all calls share a bounded-timeout http.Client.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
}

func NewClient(baseURL, authToken string, timeout time.Duration) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// ---- JobQuery ----

func (c *Client) ActiveJobs(ctx context.Context, sessionID string) ([]model.Job, error) {
	var jobs []model.Job
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/jobs/active"
	if err := c.doJSON(ctx, http.MethodGet, path, c.authToken, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ---- MessageStore ----

func (c *Client) ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, c.authToken, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) ListConversations(ctx context.Context, companyID string) ([]model.Conversation, error) {
	var convs []model.Conversation
	path := "/api/companies/" + url.PathEscape(companyID) + "/conversations"
	if err := c.doJSON(ctx, http.MethodGet, path, c.authToken, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ---- MediaStore ----

type batchUploadItem struct {
	TempID      string `json:"temp_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 over the wire
}

type batchUploadRequest struct {
	SessionID string            `json:"session_id"`
	CompanyID string            `json:"company_id"`
	Items     []batchUploadItem `json:"items"`
}

type batchUploadResponse struct {
	Items []struct {
		TempID string `json:"temp_id"`
		ID     string `json:"id"`
		URL    string `json:"url"`
	} `json:"items"`
}

func (c *Client) UploadBatch(ctx context.Context, creds gateway.Credentials, batch []gateway.MediaUpload) ([]gateway.UploadResult, error) {
	req := batchUploadRequest{
		SessionID: creds.SessionID,
		CompanyID: creds.CompanyID,
		Items:     make([]batchUploadItem, 0, len(batch)),
	}
	for _, m := range batch {
		req.Items = append(req.Items, batchUploadItem{
			TempID:      m.TempID,
			Name:        m.Name,
			ContentType: m.ContentType,
			Data:        m.Data,
		})
	}
	var resp batchUploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/media/batch", creds.AuthToken, req, &resp); err != nil {
		return nil, err
	}
	out := make([]gateway.UploadResult, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, gateway.UploadResult{TempID: it.TempID, ID: it.ID, URL: it.URL})
	}
	return out, nil
}

func (c *Client) SetSelection(ctx context.Context, sessionID string, mediaIDs []string) error {
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/media-selection"
	body := map[string][]string{"media_ids": mediaIDs}
	return c.doJSON(ctx, http.MethodPut, path, c.authToken, body, nil)
}

func (c *Client) Delete(ctx context.Context, mediaID string) error {
	path := "/api/media/" + url.PathEscape(mediaID)
	return c.doJSON(ctx, http.MethodDelete, path, c.authToken, nil, nil)
}

// ---- AIEndpoint ----

type chatRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"session_id,omitempty"`
	CompanyID string   `json:"company_id,omitempty"`
	MediaIDs  []string `json:"media_ids,omitempty"`
	AnswerTo  string   `json:"answer_to,omitempty"`
}

type chatResponse struct {
	Reply     string      `json:"reply"`
	SessionID string      `json:"session_id"`
	Post      *model.Post `json:"post,omitempty"`
}

func (c *Client) Send(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatReply, error) {
	body := chatRequest{
		Message:   req.Message,
		SessionID: req.Creds.SessionID,
		CompanyID: req.Creds.CompanyID,
		MediaIDs:  req.MediaIDs,
		AnswerTo:  req.AnswerTo,
	}
	var resp chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/ai/chat", req.Creds.AuthToken, body, &resp); err != nil {
		return nil, err
	}
	return &gateway.ChatReply{Reply: resp.Reply, SessionID: resp.SessionID, Post: resp.Post}, nil
}

// ---- PostStore ----

func (c *Client) Find(ctx context.Context, postID string) (*model.Post, error) {
	var post model.Post
	path := "/api/posts/" + url.PathEscape(postID)
	if err := c.doJSON(ctx, http.MethodGet, path, c.authToken, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) FindBySession(ctx context.Context, sessionID string) (*model.Post, error) {
	var post model.Post
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/post"
	if err := c.doJSON(ctx, http.MethodGet, path, c.authToken, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

type postUpdateRequest struct {
	Caption     *string    `json:"caption,omitempty"`
	Hashtags    []string   `json:"hashtags,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

func (c *Client) Update(ctx context.Context, postID string, upd gateway.PostUpdate) error {
	path := "/api/posts/" + url.PathEscape(postID)
	body := postUpdateRequest{Caption: upd.Caption, Hashtags: upd.Hashtags, ScheduledAt: upd.ScheduledAt}
	return c.doJSON(ctx, http.MethodPatch, path, c.authToken, body, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, postID string, status model.PostStatus) error {
	path := "/api/posts/" + url.PathEscape(postID) + "/status"
	return c.doJSON(ctx, http.MethodPatch, path, c.authToken, map[string]string{"status": string(status)}, nil)
}

func (c *Client) SetImagePositions(ctx context.Context, postID string, positions map[string]int) error {
	path := "/api/posts/" + url.PathEscape(postID) + "/image-positions"
	return c.doJSON(ctx, http.MethodPut, path, c.authToken, map[string]map[string]int{"positions": positions}, nil)
}

// ---- plumbing ----

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
