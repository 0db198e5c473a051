package services

import (
	"context"

	"teamhub/internal/domain/models"
)

// NotificationService defines the caller-facing notification inbox
type NotificationService interface {
	ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, error)

	UnreadCount(ctx context.Context, userID string) (int, error)

	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)

	MarkAllRead(ctx context.Context, userID string) (int64, error)

	DeleteNotification(ctx context.Context, id, userID string) error
}
