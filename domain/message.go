package domain

import (
	"sort"
	"time"
)

// ChatMessage is one entry in the shared admin chat log. Messages are
// immutable once created; the only mutation is deletion.
type ChatMessage struct {
	ID        int64
	AuthorID  int64
	Author    User
	Body      string
	CreatedAt time.Time
}

// SortMessages orders the chat log by (created_at, id) ascending, so ties on
// the timestamp fall back to insertion identity.
func SortMessages(messages []ChatMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
