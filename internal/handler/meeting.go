package handler

import (
	"log/slog"
	"net/http"
	"time"

	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// defaultMeetingWindow is how far ahead the calendar looks without ?to=
const defaultMeetingWindow = 30 * 24 * time.Hour

// MeetingHandler serves meeting scheduling
type MeetingHandler struct {
	service services.MeetingService
	logger  *slog.Logger
	now     func() time.Time
}

func NewMeetingHandler(service services.MeetingService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{service: service, logger: logger, now: time.Now}
}

// ListMeetings returns meetings overlapping [from, to); defaults to the next 30 days
// GET /api/meetings?from=...&to=...
func (h *MeetingHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.QueryTime(r, "from")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := httputil.QueryTime(r, "to")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := h.now()
	if from != nil {
		start = *from
	}
	end := start.Add(defaultMeetingWindow)
	if to != nil {
		end = *to
	}

	meetings, err := h.service.ListMeetings(r.Context(), httputil.GetUserID(r), start, end)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, meetings)
}

// POST /api/meetings
func (h *MeetingHandler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req services.ScheduleMeetingRequest
	if !decode(w, r, &req) {
		return
	}
	req.OrganizerID = httputil.GetUserID(r)

	m, err := h.service.ScheduleMeeting(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, m)
}

// GET /api/meetings/{id}
func (h *MeetingHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Meeting ID")
	if !ok {
		return
	}

	m, err := h.service.GetMeeting(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// PATCH /api/meetings/{id}
func (h *MeetingHandler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Meeting ID")
	if !ok {
		return
	}

	var req services.UpdateMeetingRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.service.UpdateMeeting(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// POST /api/meetings/{id}/cancel
func (h *MeetingHandler) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Meeting ID")
	if !ok {
		return
	}

	m, err := h.service.CancelMeeting(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// DELETE /api/meetings/{id}
func (h *MeetingHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Meeting ID")
	if !ok {
		return
	}

	if err := h.service.DeleteMeeting(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RespondToMeeting records the caller's RSVP: {"response": "accepted"}
// POST /api/meetings/{id}/respond
func (h *MeetingHandler) RespondToMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Meeting ID")
	if !ok {
		return
	}

	var body struct {
		Response string `json:"response"`
	}
	if !decode(w, r, &body) {
		return
	}

	m, err := h.service.RespondToMeeting(r.Context(), id, httputil.GetUserID(r), body.Response)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}
