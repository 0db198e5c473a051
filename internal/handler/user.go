package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// UserHandler serves profiles, user search and global role changes
type UserHandler struct {
	service services.UserService
	logger  *slog.Logger
}

func NewUserHandler(service services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// GetMe returns the caller's profile, creating it from the token on first sight
// GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	if claims == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetMe(r.Context(), services.Identity{
		UserID:    claims.GetUserID(),
		Email:     claims.Email,
		FullName:  claims.FullName(),
		AvatarURL: claims.AvatarURL(),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

type updateProfileBody struct {
	FullName  *string                 `json:"full_name"`
	AvatarURL httputil.OptionalString `json:"avatar_url"`
	JobTitle  httputil.OptionalString `json:"job_title"`
}

// UpdateMe patches the caller's profile
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body updateProfileBody
	if !decode(w, r, &body) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), httputil.GetUserID(r), &services.UpdateProfileRequest{
		FullName:  body.FullName,
		AvatarURL: body.AvatarURL.Service(),
		JobTitle:  body.JobTitle.Service(),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// SearchUsers finds people to invite or mention
// GET /api/users?q=ana&limit=10
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.service.SearchUsers(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

// SetRole changes a user's global role
// PATCH /api/admin/users/{id}/role
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}

	user, err := h.service.SetRole(r.Context(), httputil.GetUserID(r), targetID, body.Role)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}
