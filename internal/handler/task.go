package handler

import (
	"log/slog"
	"net/http"
	"time"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// TaskHandler serves tasks, board moves and dependencies
type TaskHandler struct {
	service services.TaskService
	logger  *slog.Logger
}

func NewTaskHandler(service services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// POST /api/projects/{id}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	req.ProjectID = projectID
	req.UserID = httputil.GetUserID(r)

	task, err := h.service.CreateTask(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, task)
}

// ListTasks lists a project's board with optional filters
// GET /api/projects/{id}/tasks?status=todo&priority=high&assignee_id=...&q=...&overdue=true
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	q := r.URL.Query()
	overdue, err := httputil.QueryBool(r, "overdue")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), httputil.GetUserID(r), models.TaskFilter{
		ProjectID:   projectID,
		AssigneeID:  q.Get("assignee_id"),
		Status:      q.Get("status"),
		Priority:    q.Get("priority"),
		Search:      q.Get("q"),
		OverdueOnly: overdue,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tasks)
}

// ListMyTasks lists tasks assigned to the caller across projects
// GET /api/tasks/mine
func (h *TaskHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListMyTasks(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tasks)
}

// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

type updateTaskBody struct {
	Title       *string                      `json:"title"`
	Description *string                      `json:"description"`
	Status      *string                      `json:"status"`
	Priority    *string                      `json:"priority"`
	AssigneeID  httputil.OptionalString      `json:"assignee_id"`
	DueDate     httputil.Optional[time.Time] `json:"due_date"`
}

// PATCH /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	var body updateTaskBody
	if !decode(w, r, &body) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, httputil.GetUserID(r), &services.UpdateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		AssigneeID:  body.AssigneeID.Service(),
		DueDate:     body.DueDate.Service(),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveTask handles a board drop: {"status": "in_progress", "index": 2}
// POST /api/tasks/{id}/move
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	var req services.MoveTaskRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.service.MoveTask(r.Context(), taskID, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// AddDependency records that the task waits on depends_on_id
// POST /api/tasks/{id}/dependencies
func (h *TaskHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	var body struct {
		DependsOnID string `json:"depends_on_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	dep, err := h.service.AddDependency(r.Context(), taskID, httputil.GetUserID(r), body.DependsOnID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, dep)
}

// DELETE /api/tasks/{id}/dependencies/{dependsOnId}
func (h *TaskHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}
	dependsOnID, ok := PathParam(w, r, "dependsOnId", "Dependency task ID")
	if !ok {
		return
	}

	if err := h.service.RemoveDependency(r.Context(), taskID, httputil.GetUserID(r), dependsOnID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDependencyGraph returns the project's dependency graph laid out in layers
// GET /api/projects/{id}/graph
func (h *TaskHandler) GetDependencyGraph(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	graph, err := h.service.GetDependencyGraph(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}
