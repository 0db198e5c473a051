package handler

import (
	"log/slog"
	"net/http"

	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// DashboardHandler serves derived statistics
type DashboardHandler struct {
	service services.DashboardService
	logger  *slog.Logger
}

func NewDashboardHandler(service services.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDashboard(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, d)
}

// GET /api/projects/{id}/report
func (h *DashboardHandler) GetProjectReport(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	report, err := h.service.GetProjectReport(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}

// GET /api/admin/reports
func (h *DashboardHandler) GetAdminReport(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.GetAdminReport(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reports)
}
