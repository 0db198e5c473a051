package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

const maxStatusMessageLength = 140

// UserPreferencesService implements the UserPreferencesService interface
type UserPreferencesService struct {
	prefsRepo repositories.UserPreferencesRepository
	logger    *slog.Logger
}

// NewUserPreferencesService creates a new user preferences service
func NewUserPreferencesService(
	prefsRepo repositories.UserPreferencesRepository,
	logger *slog.Logger,
) services.UserPreferencesService {
	return &UserPreferencesService{
		prefsRepo: prefsRepo,
		logger:    logger,
	}
}

// getDefaultPreferences returns default preferences with namespaced structure
func (s *UserPreferencesService) getDefaultPreferences(userID string) *models.UserPreferences {
	now := time.Now()
	return &models.UserPreferences{
		UserID: userID,
		Preferences: models.JSONMap{
			"ui": map[string]interface{}{
				"theme": "light",
			},
			"notifications":  map[string]interface{}{},
			"dashboard":      map[string]interface{}{},
			"status_message": nil,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetPreferences retrieves preferences for a user
func (s *UserPreferencesService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	// If no preferences exist yet, return defaults
	if prefs == nil {
		s.logger.Debug("no preferences found, returning defaults", "user_id", userID)
		prefs = s.getDefaultPreferences(userID)
	}

	return prefs, nil
}

// UpdatePreferences updates user preferences (partial or full update)
func (s *UserPreferencesService) UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	if err := validateUpdatePreferences(req); err != nil {
		return nil, invalid(err)
	}

	existing, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get existing preferences: %w", err)
	}
	if existing == nil {
		existing = s.getDefaultPreferences(userID)
	}

	// Only namespaces present in the request change
	if req.UI != nil {
		if err := existing.SetNamespace("ui", req.UI); err != nil {
			return nil, fmt.Errorf("update ui namespace: %w", err)
		}
	}
	if req.Notifications != nil {
		if err := existing.SetNamespace("notifications", req.Notifications); err != nil {
			return nil, fmt.Errorf("update notifications namespace: %w", err)
		}
	}
	if req.Dashboard != nil {
		if err := existing.SetNamespace("dashboard", req.Dashboard); err != nil {
			return nil, fmt.Errorf("update dashboard namespace: %w", err)
		}
	}
	if req.StatusMessage.Present {
		existing.SetStatusMessage(req.StatusMessage.Value)
	}

	existing.UpdatedAt = time.Now()

	if err := s.prefsRepo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	s.logger.Info("user preferences updated",
		"user_id", userID,
		"has_ui", req.UI != nil,
		"has_notifications", req.Notifications != nil,
		"has_dashboard", req.Dashboard != nil,
		"has_status_message", req.StatusMessage.Present,
	)

	return existing, nil
}

func validateUpdatePreferences(req *models.UpdatePreferencesRequest) error {
	if req.UI != nil {
		err := validation.ValidateStruct(req.UI,
			validation.Field(&req.UI.Theme, validation.In("light", "dark", "auto")),
			validation.Field(&req.UI.Language, validation.Length(0, 16)),
		)
		if err != nil {
			return fmt.Errorf("ui: %w", err)
		}
	}
	if req.Dashboard != nil {
		err := validation.ValidateStruct(req.Dashboard,
			validation.Field(&req.Dashboard.DefaultProjectID, isUUID),
		)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
	}
	if req.StatusMessage.Value != nil {
		if err := validation.Validate(*req.StatusMessage.Value, validation.Length(0, maxStatusMessageLength)); err != nil {
			return fmt.Errorf("status_message: %w", err)
		}
	}
	return nil
}
