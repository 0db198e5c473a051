package services

import (
	"context"

	"teamhub/internal/domain/models"
)

// Identity is the authenticated caller as asserted by the token
type Identity struct {
	UserID    string
	Email     string
	FullName  string
	AvatarURL string
}

type UpdateProfileRequest struct {
	FullName  *string
	AvatarURL Optional[string]
	JobTitle  Optional[string]
}

// UserService defines profile and user administration operations
type UserService interface {
	// GetMe syncs the profile from the identity and returns it
	GetMe(ctx context.Context, identity Identity) (*models.User, error)

	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)

	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)

	// SetRole changes a user's global role; only admins may call it and never on themselves
	SetRole(ctx context.Context, actorID, targetID, role string) (*models.User, error)
}
