package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// NotificationRepository defines data access operations for notifications.
// Every read and write is scoped to the owning user.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error

	List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead sets read_at if unset and returns the row
	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)

	// MarkAllRead returns the number of rows changed
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	Delete(ctx context.Context, id, userID string) error
}
