package models

import (
	"sort"
	"time"
)

type Message struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"project_id"`
	SenderID  string       `json:"sender_id"`
	Content   string       `json:"content"`
	EditedAt  *time.Time   `json:"edited_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Sender    *UserSummary `json:"sender,omitempty"`
}

// MessageCursor marks the oldest message a client already holds. ID breaks
// ties between messages sharing CreatedAt; an empty ID pages by time alone.
type MessageCursor struct {
	CreatedAt time.Time
	ID        string
}

// SortMessages orders messages oldest-first; ties broken by ID so the order is total
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
