package repositories

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

// MessageRepository defines data access operations for project chat messages
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error

	// GetByID returns the message with its sender joined
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListBefore returns up to limit messages ordered strictly before the cursor
	// by (created_at, id), newest first. A nil cursor starts from the latest message.
	ListBefore(ctx context.Context, projectID string, before *models.MessageCursor, limit int) ([]models.Message, error)

	// ListSince returns messages created at or after since, oldest first
	ListSince(ctx context.Context, projectID string, since time.Time, limit int) ([]models.Message, error)

	UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error

	Delete(ctx context.Context, id string) error
}
