package service

import (
	"context"
	"fmt"
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

// suggestionService implements the SuggestionService interface
type suggestionService struct {
	suggestionRepo repositories.SuggestionRepository
	authorizer     services.ResourceAuthorizer
	notifier       services.Notifier
	publisher      services.ChangePublisher
	logger         *slog.Logger
}

// NewSuggestionService creates a new suggestion box service
func NewSuggestionService(
	suggestionRepo repositories.SuggestionRepository,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.SuggestionService {
	return &suggestionService{
		suggestionRepo: suggestionRepo,
		authorizer:     authorizer,
		notifier:       notifier,
		publisher:      publisher,
		logger:         logger,
	}
}

// CreateSuggestion files a suggestion, optionally tagged with a project the author belongs to
func (s *suggestionService) CreateSuggestion(ctx context.Context, req *services.CreateSuggestionRequest) (*models.Suggestion, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Category == "" {
		req.Category = "other"
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ProjectID, isUUID),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxSuggestionTitleLength)),
		validation.Field(&req.Body, validation.Length(0, config.MaxSuggestionBodyLength)),
		validation.Field(&req.Category, oneOf(models.SuggestionCategories)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if req.ProjectID != nil {
		if err := s.authorizer.CanAccessProject(ctx, req.UserID, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	suggestion := &models.Suggestion{
		AuthorID:  req.UserID,
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		Status:    models.SuggestionStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.suggestionRepo.Create(ctx, suggestion); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeInsert, suggestion)
	s.logger.Info("suggestion created", "id", suggestion.ID, "category", suggestion.Category, "user_id", req.UserID)
	return suggestion, nil
}

// ListSuggestions lists the suggestion box. A project filter requires access to that project.
func (s *suggestionService) ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	err := validation.ValidateStruct(&filter,
		validation.Field(&filter.Status, oneOf(models.SuggestionStatuses)),
		validation.Field(&filter.Category, oneOf(models.SuggestionCategories)),
		validation.Field(&filter.ProjectID, isUUID),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if filter.ProjectID != "" {
		if err := s.authorizer.CanAccessProject(ctx, userID, filter.ProjectID); err != nil {
			return nil, err
		}
	}
	return s.suggestionRepo.List(ctx, filter, userID)
}

func (s *suggestionService) GetSuggestion(ctx context.Context, id, userID string) (*models.Suggestion, error) {
	return s.suggestionRepo.GetByID(ctx, id, userID)
}

// UpdateSuggestion edits an open suggestion; author only
func (s *suggestionService) UpdateSuggestion(ctx context.Context, id, userID string, req *services.UpdateSuggestionRequest) (*models.Suggestion, error) {
	req.Title = trimPtr(req.Title)
	req.Body = trimPtr(req.Body)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxSuggestionTitleLength)),
		validation.Field(&req.Body, validation.Length(0, config.MaxSuggestionBodyLength)),
		validation.Field(&req.Category, validation.NilOrNotEmpty, oneOf(models.SuggestionCategories)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	suggestion, err := s.suggestionRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if suggestion.AuthorID != userID {
		return nil, domain.Forbidden("only the author can edit a suggestion")
	}
	if suggestion.Status != models.SuggestionStatusOpen {
		return nil, domain.Validation("suggestion is %s and can no longer be edited", suggestion.Status)
	}

	if req.Title != nil {
		suggestion.Title = *req.Title
	}
	if req.Body != nil {
		suggestion.Body = *req.Body
	}
	if req.Category != nil {
		suggestion.Category = *req.Category
	}
	suggestion.UpdatedAt = time.Now()

	if err := s.suggestionRepo.Update(ctx, suggestion); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeUpdate, suggestion)
	s.logger.Info("suggestion updated", "id", id, "user_id", userID)
	return suggestion, nil
}

// DeleteSuggestion removes a suggestion; author or global admin
func (s *suggestionService) DeleteSuggestion(ctx context.Context, id, userID string) error {
	suggestion, err := s.suggestionRepo.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if suggestion.AuthorID != userID {
		admin, err := s.authorizer.IsAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return domain.Forbidden("only the author or an admin can delete a suggestion")
		}
	}

	if err := s.suggestionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, models.ChangeDelete, suggestion)
	s.logger.Info("suggestion deleted", "id", id, "user_id", userID)
	return nil
}

// ToggleVote flips the caller's vote
func (s *suggestionService) ToggleVote(ctx context.Context, id, userID string) (*models.Suggestion, error) {
	// Existence check first so a vote on a missing suggestion is a 404, not a FK error
	if _, err := s.suggestionRepo.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}

	voted, err := s.suggestionRepo.ToggleVote(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	suggestion, err := s.suggestionRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// voted_by_me is viewer-specific, so other subscribers only learn the new count
	broadcast := *suggestion
	broadcast.VotedByMe = false
	s.publish(ctx, models.ChangeUpdate, &broadcast)

	s.logger.Info("suggestion vote toggled", "id", id, "user_id", userID, "voted", voted, "vote_count", suggestion.VoteCount)
	return suggestion, nil
}

// ReviewSuggestion records an admin decision and tells the author
func (s *suggestionService) ReviewSuggestion(ctx context.Context, id, userID string, req *services.ReviewSuggestionRequest) (*models.Suggestion, error) {
	req.Note = trimPtr(req.Note)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Status, validation.Required, oneOf(models.SuggestionStatuses)),
		validation.Field(&req.Note, validation.Length(0, config.MaxSuggestionBodyLength)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	admin, err := s.authorizer.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.Forbidden("only admins can review suggestions")
	}

	suggestion, err := s.suggestionRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	suggestion.Status = req.Status
	suggestion.ReviewNote = req.Note
	suggestion.ReviewerID = &userID
	suggestion.UpdatedAt = time.Now()

	if err := s.suggestionRepo.Update(ctx, suggestion); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeUpdate, suggestion)
	if suggestion.AuthorID != userID {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:       suggestion.AuthorID,
			Type:         models.NotificationSuggestionReviewed,
			Title:        fmt.Sprintf("Your suggestion was marked %s", strings.ReplaceAll(suggestion.Status, "_", " ")),
			Body:         deref(req.Note),
			ResourceType: "suggestion",
			ResourceID:   suggestion.ID,
			ProjectID:    suggestion.ProjectID,
		})
	}

	s.logger.Info("suggestion reviewed", "id", id, "status", req.Status, "reviewer_id", userID)
	return suggestion, nil
}

func (s *suggestionService) publish(ctx context.Context, action string, suggestion *models.Suggestion) {
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableSuggestions, action, deref(suggestion.ProjectID), "", suggestion.ID, suggestion))
}
