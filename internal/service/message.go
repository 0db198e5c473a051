package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// messageService implements the MessageService interface
type messageService struct {
	messageRepo repositories.MessageRepository
	memberRepo  repositories.MemberRepository
	authorizer  services.ResourceAuthorizer
	notifier    services.Notifier
	publisher   services.ChangePublisher
	logger      *slog.Logger
}

// NewMessageService creates a new chat service
func NewMessageService(
	messageRepo repositories.MessageRepository,
	memberRepo repositories.MemberRepository,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.MessageService {
	return &messageService{
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		authorizer:  authorizer,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

// SendMessage posts a message and notifies mentioned members
func (s *messageService) SendMessage(ctx context.Context, req *services.SendMessageRequest) (*models.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required, isUUID),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, config.MaxMessageLength)),
		validation.Field(&req.MentionIDs, validation.Each(isUUID)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.authorizer.Require(ctx, req.UserID, req.ProjectID, services.ActionMessageSend); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ProjectID: req.ProjectID,
		SenderID:  req.UserID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Reload so subscribers receive the sender profile with the row
	if joined, err := s.messageRepo.GetByID(ctx, msg.ID); err == nil {
		msg = joined
	} else {
		s.logger.Warn("reload message failed", "id", msg.ID, "error", err)
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMessages, models.ChangeInsert, msg.ProjectID, "", msg.ID, msg))
	s.notifyMentions(ctx, msg, req.MentionIDs)

	s.logger.Info("message sent", "id", msg.ID, "project_id", msg.ProjectID, "user_id", req.UserID)
	return msg, nil
}

// notifyMentions notifies mentioned project members other than the sender
func (s *messageService) notifyMentions(ctx context.Context, msg *models.Message, mentionIDs []string) {
	candidates := make([]string, 0, len(mentionIDs))
	for _, id := range dedupe(mentionIDs) {
		if id != msg.SenderID {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return
	}

	members, err := s.memberRepo.MemberIDs(ctx, msg.ProjectID, candidates)
	if err != nil {
		s.logger.Error("resolve mentions failed", "message_id", msg.ID, "error", err)
		return
	}

	sender := "Someone"
	if msg.Sender != nil && msg.Sender.FullName != "" {
		sender = msg.Sender.FullName
	}
	projectID := msg.ProjectID
	for _, userID := range members {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:       userID,
			Type:         models.NotificationMention,
			Title:        sender + " mentioned you",
			Body:         excerpt(msg.Content, 140),
			ResourceType: "message",
			ResourceID:   msg.ID,
			ProjectID:    &projectID,
		})
	}
}

// excerpt shortens s to at most n runes
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ListMessages returns one history page, oldest-first
func (s *messageService) ListMessages(ctx context.Context, projectID, userID string, before *models.MessageCursor, limit int) ([]models.Message, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.ListBefore(ctx, projectID, before, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	models.SortMessages(msgs)
	return msgs, nil
}

// ListMessagesSince returns messages created at or after since, oldest-first
func (s *messageService) ListMessagesSince(ctx context.Context, projectID, userID string, since time.Time, limit int) ([]models.Message, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.ListSince(ctx, projectID, since, limit)
	if err != nil {
		return nil, err
	}
	models.SortMessages(msgs)
	return msgs, nil
}

// EditMessage replaces the content of the caller's own message
func (s *messageService) EditMessage(ctx context.Context, id, userID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if err := validation.Validate(content, validation.Required, validation.RuneLength(1, config.MaxMessageLength)); err != nil {
		return nil, domain.Validation("content: %v", err)
	}

	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessProject(ctx, userID, msg.ProjectID); err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, domain.Forbidden("only the sender can edit a message")
	}

	now := time.Now()
	if err := s.messageRepo.UpdateContent(ctx, id, content, now); err != nil {
		return nil, err
	}
	msg.Content = content
	msg.EditedAt = &now

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMessages, models.ChangeUpdate, msg.ProjectID, "", msg.ID, msg))
	s.logger.Info("message edited", "id", id, "user_id", userID)
	return msg, nil
}

// DeleteMessage removes a message; moderators may delete anyone's
func (s *messageService) DeleteMessage(ctx context.Context, id, userID string) error {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID == userID {
		err = s.authorizer.CanAccessProject(ctx, userID, msg.ProjectID)
	} else {
		err = s.authorizer.Require(ctx, userID, msg.ProjectID, services.ActionMessageModerate)
	}
	if err != nil {
		return err
	}

	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMessages, models.ChangeDelete, msg.ProjectID, "", msg.ID, nil))
	s.logger.Info("message deleted", "id", id, "project_id", msg.ProjectID, "user_id", userID)
	return nil
}
