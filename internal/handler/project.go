package handler

import (
	"log/slog"
	"net/http"
	"time"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// ProjectHandler serves projects and their memberships
type ProjectHandler struct {
	service services.ProjectService
	logger  *slog.Logger
}

func NewProjectHandler(service services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

// CreateProject creates a project owned by the caller.
// A duplicate name returns the existing project with 409.
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	userID := httputil.GetUserID(r)
	req.UserID = userID

	project, err := h.service.CreateProject(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, r, h.logger, err, func(id string) (*models.Project, error) {
			return h.service.GetProject(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// ListProjects returns the caller's projects with progress
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.service.GetProject(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

type updateProjectBody struct {
	Name        *string                      `json:"name"`
	Description *string                      `json:"description"`
	Status      *string                      `json:"status"`
	StartDate   httputil.Optional[time.Time] `json:"start_date"`
	DueDate     httputil.Optional[time.Time] `json:"due_date"`
}

// PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var body updateProjectBody
	if !decode(w, r, &body) {
		return
	}

	project, err := h.service.UpdateProject(r.Context(), projectID, httputil.GetUserID(r), &services.UpdateProjectRequest{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
		StartDate:   body.StartDate.Service(),
		DueDate:     body.DueDate.Service(),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteProject soft-deletes and returns the project with deleted_at set
// DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.service.DeleteProject(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// GET /api/projects/{id}/members
func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, members)
}

// POST /api/projects/{id}/members
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req services.AddMemberRequest
	if !decode(w, r, &req) {
		return
	}

	member, err := h.service.AddMember(r.Context(), projectID, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, member)
}

// PATCH /api/projects/{id}/members/{userId}
func (h *ProjectHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	memberID, ok := PathParam(w, r, "userId", "User ID")
	if !ok {
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}

	member, err := h.service.UpdateMemberRole(r.Context(), projectID, httputil.GetUserID(r), memberID, body.Role)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, member)
}

// RemoveMember removes a member, or lets the caller leave
// DELETE /api/projects/{id}/members/{userId}
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	memberID, ok := PathParam(w, r, "userId", "User ID")
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), projectID, httputil.GetUserID(r), memberID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
