package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// UserPreferencesRepository defines data access for user preferences
type UserPreferencesRepository interface {
	// GetByUserID returns nil, nil when the user has never saved preferences
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)

	// Upsert creates or updates user preferences
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}
