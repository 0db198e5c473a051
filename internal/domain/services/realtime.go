package services

import (
	"context"

	"teamhub/internal/domain/models"
)

// ChangePublisher fans a committed change out to realtime subscribers.
// Publishing is best-effort: a failure never undoes the write that caused it.
type ChangePublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent)
}

// Notifier creates in-app notifications on behalf of other services.
// Failures are logged by the implementation and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}
