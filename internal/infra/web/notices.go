package web

import (
	"sync"
	"time"

	"social-post-copilot/internal/domain/ports/gateway"
)

// Notice is one user-visible toast entry.
type Notice struct {
	Level   gateway.NoticeLevel `json:"level"`
	Message string              `json:"message"`
	At      time.Time           `json:"at"`
}

// NoticeLog retains the most recent notices for the web surface to poll.
type NoticeLog struct {
	mu      sync.Mutex
	entries []Notice
	max     int
}

var _ gateway.Notifier = (*NoticeLog)(nil)

func NewNoticeLog(max int) *NoticeLog {
	if max <= 0 {
		max = 50
	}
	return &NoticeLog{max: max}
}

func (l *NoticeLog) Notify(level gateway.NoticeLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Notice{Level: level, Message: message, At: time.Now()})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Recent returns the retained notices, newest last.
func (l *NoticeLog) Recent() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notice, len(l.entries))
	copy(out, l.entries)
	return out
}
