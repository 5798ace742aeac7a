package model

import "time"

// ChatMessage is one turn in a chat session. A user message is inserted
// optimistically with IsLoading set and keeps the same identity through the
// whole round trip; IsLoading is cleared on both success and failure.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	IsAI      bool      `json:"is_ai"`
	Content   string    `json:"content"`
	MediaIDs  []string  `json:"media_ids,omitempty"`
	IsLoading bool      `json:"is_loading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is one entry in the side panel's conversation list.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}
