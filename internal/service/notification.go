package service

import (
	"context"
	"fmt"
	"log/slog"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// NotificationService implements both the caller-facing inbox and the Notifier
// used by other services
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	prefsRepo        repositories.UserPreferencesRepository
	publisher        services.ChangePublisher
	logger           *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	prefsRepo repositories.UserPreferencesRepository,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		prefsRepo:        prefsRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// Notify stores and publishes a notification unless the recipient opted out.
// Failures are logged; the triggering write has already succeeded.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if !s.wants(ctx, n.UserID, n.Type) {
		s.logger.Debug("notification suppressed by preferences", "user_id", n.UserID, "type", n.Type)
		return
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			"user_id", n.UserID,
			"type", n.Type,
			"resource_id", n.ResourceID,
			"error", err,
		)
		return
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableNotifications, models.ChangeInsert,
		deref(n.ProjectID), n.UserID, n.ID, n))

	s.logger.Debug("notification created", "id", n.ID, "user_id", n.UserID, "type", n.Type)
}

// wants reads the recipient's preferences; a lookup failure errs on the side of notifying
func (s *NotificationService) wants(ctx context.Context, userID, notificationType string) bool {
	prefs, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load notification preferences", "user_id", userID, "error", err)
		return true
	}
	if prefs == nil {
		return true
	}
	np, err := prefs.GetNotifications()
	if err != nil {
		return true
	}
	return np.WantsNotification(notificationType)
}

// ListNotifications lists the caller's notifications, newest first
func (s *NotificationService) ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.notificationRepo.List(ctx, userID, filter)
}

// UnreadCount counts the caller's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableNotifications, models.ChangeUpdate,
		deref(n.ProjectID), userID, n.ID, n))
	return n, nil
}

// MarkAllRead marks every unread notification read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	if count > 0 {
		// One coarse event; clients refetch the inbox
		s.publisher.Publish(ctx, models.NewChangeEvent(models.TableNotifications, models.ChangeUpdate,
			"", userID, "*", nil))
	}
	s.logger.Info("notifications marked read", "user_id", userID, "count", count)
	return count, nil
}

// DeleteNotification removes one of the caller's notifications
func (s *NotificationService) DeleteNotification(ctx context.Context, id, userID string) error {
	if err := s.notificationRepo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableNotifications, models.ChangeDelete,
		"", userID, id, nil))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var (
	_ services.NotificationService = (*NotificationService)(nil)
	_ services.Notifier            = (*NotificationService)(nil)
)
