package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
)

// SessionCache keeps per-session message history snapshots. The exchange
// coordinator writes through after each refresh; the web layer reads through
// on history requests.
type SessionCache struct {
	client *redClient
	ttl    time.Duration
}

var _ gateway.SessionCache = (*SessionCache)(nil)

func NewSessionCache(client *redClient, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

func (c *SessionCache) StoreMessages(ctx context.Context, sessionID string, msgs []model.ChatMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, messagesKey(sessionID), data, c.ttl)
}

func (c *SessionCache) Messages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	data, err := c.client.Get(ctx, messagesKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var msgs []model.ChatMessage
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, messagesKey(sessionID))
}

func messagesKey(sessionID string) string {
	return "session_messages:" + sessionID
}
