package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// userService implements the UserService interface
type userService struct {
	userRepo   repositories.UserRepository
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.UserService {
	return &userService{
		userRepo:   userRepo,
		authorizer: authorizer,
		logger:     logger,
	}
}

// GetMe upserts the caller's profile from token claims and returns it
func (s *userService) GetMe(ctx context.Context, identity services.Identity) (*models.User, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("missing user id: %w", domain.ErrUnauthorized)
	}

	user := &models.User{
		ID:       identity.UserID,
		Email:    identity.Email,
		FullName: strings.TrimSpace(identity.FullName),
	}
	if identity.AvatarURL != "" {
		avatar := identity.AvatarURL
		user.AvatarURL = &avatar
	}
	if user.FullName == "" && identity.Email != "" {
		// Fallback display name for accounts created without metadata
		user.FullName = strings.SplitN(identity.Email, "@", 2)[0]
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("sync profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile update
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *services.UpdateProfileRequest) (*models.User, error) {
	req.FullName = trimPtr(req.FullName)
	err := validation.ValidateStruct(req,
		validation.Field(&req.FullName, validation.NilOrNotEmpty, validation.Length(1, config.MaxFullNameLength)),
	)
	if err != nil {
		return nil, invalid(err)
	}
	if req.AvatarURL.Value != nil {
		if err := validation.Validate(*req.AvatarURL.Value, is.URL); err != nil {
			return nil, domain.Validation("avatar_url: %v", err)
		}
	}
	if req.JobTitle.Value != nil && len(*req.JobTitle.Value) > config.MaxFullNameLength {
		return nil, domain.Validation("job_title: the length must be no more than %d", config.MaxFullNameLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.AvatarURL.Present {
		user.AvatarURL = req.AvatarURL.Value
	}
	if req.JobTitle.Present {
		user.JobTitle = trimPtr(req.JobTitle.Value)
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID)
	return user, nil
}

// SearchUsers looks up the directory for member pickers
func (s *userService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	return s.userRepo.Search(ctx, query, clampLimit(limit))
}

// SetRole changes a user's global role
func (s *userService) SetRole(ctx context.Context, actorID, targetID, role string) (*models.User, error) {
	if err := validation.Validate(role, validation.Required, validation.In(models.UserRoleAdmin, models.UserRoleMember)); err != nil {
		return nil, domain.Validation("role: %v", err)
	}

	admin, err := s.authorizer.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.Forbidden("only admins can change roles")
	}
	if actorID == targetID && role != models.UserRoleAdmin {
		return nil, domain.Validation("admins cannot demote themselves")
	}

	user, err := s.userRepo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", targetID, "role", role, "by", actorID)
	return user, nil
}
