package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// MessageHandler serves project chat
type MessageHandler struct {
	service services.MessageService
	logger  *slog.Logger
}

func NewMessageHandler(service services.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{service: service, logger: logger}
}

// ListMessages returns one page of history, oldest-first. Pass the created_at
// and id of the oldest message already shown as before and before_id to page
// further back.
// GET /api/projects/{id}/messages?before=2026-03-01T09:00:00Z&before_id=...&limit=50
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	beforeAt, err := httputil.QueryTime(r, "before")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var before *models.MessageCursor
	beforeID := r.URL.Query().Get("before_id")
	switch {
	case beforeAt != nil:
		if beforeID != "" {
			if beforeID, err = parseUUID(beforeID); err != nil {
				httputil.RespondError(w, http.StatusBadRequest, "before_id must be a valid UUID")
				return
			}
		}
		before = &models.MessageCursor{CreatedAt: *beforeAt, ID: beforeID}
	case beforeID != "":
		httputil.RespondError(w, http.StatusBadRequest, "before_id requires before")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.service.ListMessages(r.Context(), projectID, httputil.GetUserID(r), before, limit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, msgs)
}

// POST /api/projects/{id}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var body struct {
		Content    string   `json:"content"`
		MentionIDs []string `json:"mention_ids"`
	}
	if !decode(w, r, &body) {
		return
	}

	msg, err := h.service.SendMessage(r.Context(), &services.SendMessageRequest{
		ProjectID:  projectID,
		UserID:     httputil.GetUserID(r),
		Content:    body.Content,
		MentionIDs: body.MentionIDs,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// PATCH /api/messages/{id}
func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := PathParam(w, r, "id", "Message ID")
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &body) {
		return
	}

	msg, err := h.service.EditMessage(r.Context(), messageID, httputil.GetUserID(r), body.Content)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, msg)
}

// DELETE /api/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := PathParam(w, r, "id", "Message ID")
	if !ok {
		return
	}

	if err := h.service.DeleteMessage(r.Context(), messageID, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
