package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// UserRepository defines data access operations for user profiles
type UserRepository interface {
	// Upsert inserts the profile seeded from the identity provider. An existing
	// profile only has its email refreshed; user edits to name and avatar stick.
	Upsert(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)

	// Search matches name or email prefixes, ordered by name
	Search(ctx context.Context, query string, limit int) ([]models.User, error)

	UpdateProfile(ctx context.Context, user *models.User) error

	UpdateRole(ctx context.Context, id, role string) (*models.User, error)

	// GetSummaries resolves a set of ids to slim profiles, keyed by id
	GetSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error)
}
