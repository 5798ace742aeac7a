package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-post-copilot/internal/config"
	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
)

// newTestClient connects to a local redis, skipping the test when none is
// reachable.
func newTestClient(t *testing.T) *redClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := NewClient(ctx, &config.RedisConfig{URL: "localhost:6379", DB: 15})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSessionCache_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	cache := NewSessionCache(client, time.Minute)
	ctx := context.Background()
	t.Cleanup(func() { _ = cache.Invalidate(ctx, "cache-test-s1") })

	msgs := []model.ChatMessage{
		{ID: "m1", SessionID: "cache-test-s1", Content: "hello"},
		{ID: "m2", SessionID: "cache-test-s1", IsAI: true, Content: "done"},
	}
	if err := cache.StoreMessages(ctx, "cache-test-s1", msgs); err != nil {
		t.Fatalf("StoreMessages: %v", err)
	}

	got, err := cache.Messages(ctx, "cache-test-s1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || !got[1].IsAI {
		t.Fatalf("unexpected messages %+v", got)
	}
}

func TestSessionCache_MissIsNotFound(t *testing.T) {
	client := newTestClient(t)
	cache := NewSessionCache(client, time.Minute)

	_, err := cache.Messages(context.Background(), "cache-test-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionCache_Invalidate(t *testing.T) {
	client := newTestClient(t)
	cache := NewSessionCache(client, time.Minute)
	ctx := context.Background()

	if err := cache.StoreMessages(ctx, "cache-test-s2", []model.ChatMessage{{ID: "m1"}}); err != nil {
		t.Fatalf("StoreMessages: %v", err)
	}
	if err := cache.Invalidate(ctx, "cache-test-s2"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := cache.Messages(ctx, "cache-test-s2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after invalidate, got %v", err)
	}
}
