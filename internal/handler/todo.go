package handler

import (
	"log/slog"
	"net/http"
	"time"

	"teamhub/internal/domain/services"
	"teamhub/internal/httputil"
)

// TodoHandler serves the caller's personal to-do list
type TodoHandler struct {
	service services.TodoService
	logger  *slog.Logger
}

func NewTodoHandler(service services.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{service: service, logger: logger}
}

// GET /api/todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.service.ListTodos(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, todos)
}

// POST /api/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string     `json:"title"`
		Notes   string     `json:"notes"`
		DueDate *time.Time `json:"due_date"`
	}
	if !decode(w, r, &body) {
		return
	}

	todo, err := h.service.CreateTodo(r.Context(), &services.CreateTodoRequest{
		UserID:  httputil.GetUserID(r),
		Title:   body.Title,
		Notes:   body.Notes,
		DueDate: body.DueDate,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, todo)
}

type updateTodoBody struct {
	Title     *string                      `json:"title"`
	Notes     *string                      `json:"notes"`
	Completed *bool                        `json:"completed"`
	DueDate   httputil.Optional[time.Time] `json:"due_date"`
}

// PATCH /api/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Todo ID")
	if !ok {
		return
	}

	var body updateTodoBody
	if !decode(w, r, &body) {
		return
	}

	todo, err := h.service.UpdateTodo(r.Context(), id, httputil.GetUserID(r), &services.UpdateTodoRequest{
		Title:     body.Title,
		Notes:     body.Notes,
		Completed: body.Completed,
		DueDate:   body.DueDate.Service(),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, todo)
}

// DELETE /api/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Todo ID")
	if !ok {
		return
	}

	if err := h.service.DeleteTodo(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveTodo reorders the list and returns it: {"index": 0}
// POST /api/todos/{id}/move
func (h *TodoHandler) MoveTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Todo ID")
	if !ok {
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if !decode(w, r, &body) {
		return
	}

	todos, err := h.service.MoveTodo(r.Context(), id, httputil.GetUserID(r), body.Index)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, todos)
}
