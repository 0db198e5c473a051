package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// SuggestionRepository defines data access operations for suggestions and votes.
// viewerID fills the voted_by_me flag.
type SuggestionRepository interface {
	Create(ctx context.Context, s *models.Suggestion) error

	GetByID(ctx context.Context, id, viewerID string) (*models.Suggestion, error)

	// List orders by vote count DESC then created_at DESC
	List(ctx context.Context, filter models.SuggestionFilter, viewerID string) ([]models.Suggestion, error)

	Update(ctx context.Context, s *models.Suggestion) error

	Delete(ctx context.Context, id string) error

	// ToggleVote adds the user's vote or removes it; returns whether a vote now exists
	ToggleVote(ctx context.Context, suggestionID, userID string) (bool, error)
}
