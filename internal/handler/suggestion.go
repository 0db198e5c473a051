package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// SuggestionHandler serves the suggestion box
type SuggestionHandler struct {
	service services.SuggestionService
	logger  *slog.Logger
}

func NewSuggestionHandler(service services.SuggestionService, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{service: service, logger: logger}
}

// GET /api/suggestions?status=open&project_id=...&category=process
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SuggestionFilter{
		Status:    q.Get("status"),
		ProjectID: q.Get("project_id"),
		Category:  q.Get("category"),
	}

	items, err := h.service.ListSuggestions(r.Context(), httputil.GetUserID(r), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// POST /api/suggestions
func (h *SuggestionHandler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req services.CreateSuggestionRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserID = httputil.GetUserID(r)

	s, err := h.service.CreateSuggestion(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, s)
}

// GET /api/suggestions/{id}
func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Suggestion ID")
	if !ok {
		return
	}

	s, err := h.service.GetSuggestion(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, s)
}

// PATCH /api/suggestions/{id}
func (h *SuggestionHandler) UpdateSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Suggestion ID")
	if !ok {
		return
	}

	var req services.UpdateSuggestionRequest
	if !decode(w, r, &req) {
		return
	}

	s, err := h.service.UpdateSuggestion(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, s)
}

// DELETE /api/suggestions/{id}
func (h *SuggestionHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Suggestion ID")
	if !ok {
		return
	}

	if err := h.service.DeleteSuggestion(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleVote flips the caller's vote
// POST /api/suggestions/{id}/vote
func (h *SuggestionHandler) ToggleVote(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Suggestion ID")
	if !ok {
		return
	}

	s, err := h.service.ToggleVote(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, s)
}

// POST /api/suggestions/{id}/review
func (h *SuggestionHandler) ReviewSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Suggestion ID")
	if !ok {
		return
	}

	var req services.ReviewSuggestionRequest
	if !decode(w, r, &req) {
		return
	}

	s, err := h.service.ReviewSuggestion(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, s)
}
