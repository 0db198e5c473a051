package services

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

type SendMessageRequest struct {
	ProjectID  string   `json:"project_id"`
	UserID     string   `json:"user_id"`
	Content    string   `json:"content"`
	MentionIDs []string `json:"mention_ids"`
}

// MessageService defines project chat operations
type MessageService interface {
	SendMessage(ctx context.Context, req *SendMessageRequest) (*models.Message, error)

	// ListMessages returns one page older than before (nil = latest), oldest-first
	ListMessages(ctx context.Context, projectID, userID string, before *models.MessageCursor, limit int) ([]models.Message, error)

	// ListMessagesSince returns messages at or after since, oldest-first (realtime catch-up)
	ListMessagesSince(ctx context.Context, projectID, userID string, since time.Time, limit int) ([]models.Message, error)

	EditMessage(ctx context.Context, id, userID, content string) (*models.Message, error)

	DeleteMessage(ctx context.Context, id, userID string) error
}
