package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// UserPreferencesHandler handles user preferences HTTP requests
type UserPreferencesHandler struct {
	service services.UserPreferencesService
	logger  *slog.Logger
}

// NewUserPreferencesHandler creates a new user preferences handler
func NewUserPreferencesHandler(service services.UserPreferencesService, logger *slog.Logger) *UserPreferencesHandler {
	return &UserPreferencesHandler{
		service: service,
		logger:  logger,
	}
}

// updatePreferencesBody is the wire form; status_message needs tri-state decoding
type updatePreferencesBody struct {
	UI            *models.UIPreferences           `json:"ui"`
	Notifications *models.NotificationPreferences `json:"notifications"`
	Dashboard     *models.DashboardPreferences    `json:"dashboard"`
	StatusMessage httputil.OptionalString         `json:"status_message"`
}

// GetPreferences retrieves user preferences
// GET /api/users/me/preferences
func (h *UserPreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.GetPreferences(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences updates user preferences
// PATCH /api/users/me/preferences
func (h *UserPreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body updatePreferencesBody
	if !decode(w, r, &body) {
		return
	}

	req := models.UpdatePreferencesRequest{
		UI:            body.UI,
		Notifications: body.Notifications,
		Dashboard:     body.Dashboard,
		StatusMessage: models.OptionalStatusMessage{
			Present: body.StatusMessage.Present,
			Value:   body.StatusMessage.Value,
		},
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}
