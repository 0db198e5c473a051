package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// NotificationHandler serves the caller's notification inbox
type NotificationHandler struct {
	service services.NotificationService
	logger  *slog.Logger
}

func NewNotificationHandler(service services.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// GET /api/notifications?unread=true&limit=20
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unread, err := httputil.QueryBool(r, "unread")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.service.ListNotifications(r.Context(), httputil.GetUserID(r), models.NotificationFilter{
		UnreadOnly: unread,
		Limit:      limit,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.UnreadCount(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Notification ID")
	if !ok {
		return
	}

	n, err := h.service.MarkRead(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, n)
}

// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.MarkAllRead(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Notification ID")
	if !ok {
		return
	}

	if err := h.service.DeleteNotification(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
