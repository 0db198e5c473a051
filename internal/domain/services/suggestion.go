package services

import (
	"context"

	"teamhub/internal/domain/models"
)

type CreateSuggestionRequest struct {
	UserID    string  `json:"user_id"`
	ProjectID *string `json:"project_id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Category  string  `json:"category"`
}

type UpdateSuggestionRequest struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

type ReviewSuggestionRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// SuggestionService defines the suggestion box operations
type SuggestionService interface {
	CreateSuggestion(ctx context.Context, req *CreateSuggestionRequest) (*models.Suggestion, error)

	ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error)

	GetSuggestion(ctx context.Context, id, userID string) (*models.Suggestion, error)

	// UpdateSuggestion edits an open suggestion; author only
	UpdateSuggestion(ctx context.Context, id, userID string, req *UpdateSuggestionRequest) (*models.Suggestion, error)

	DeleteSuggestion(ctx context.Context, id, userID string) error

	// ToggleVote flips the caller's vote and returns the refreshed suggestion
	ToggleVote(ctx context.Context, id, userID string) (*models.Suggestion, error)

	// ReviewSuggestion sets status and note; global admins only
	ReviewSuggestion(ctx context.Context, id, userID string, req *ReviewSuggestionRequest) (*models.Suggestion, error)
}
