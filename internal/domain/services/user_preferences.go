package services

import (
	"context"

	"teamhub/internal/domain/models"
)

// UserPreferencesService defines business logic for user preferences
type UserPreferencesService interface {
	// GetPreferences returns stored preferences, or defaults when none exist
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)

	// UpdatePreferences applies a partial update and persists the result
	UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error)
}
