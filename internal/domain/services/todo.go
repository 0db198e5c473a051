package services

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

type CreateTodoRequest struct {
	UserID  string     `json:"user_id"`
	Title   string     `json:"title"`
	Notes   string     `json:"notes"`
	DueDate *time.Time `json:"due_date"`
}

type UpdateTodoRequest struct {
	Title     *string
	Notes     *string
	Completed *bool
	DueDate   Optional[time.Time]
}

// TodoService defines personal to-do operations; everything is owner-scoped
type TodoService interface {
	ListTodos(ctx context.Context, userID string) ([]models.PersonalTodo, error)

	CreateTodo(ctx context.Context, req *CreateTodoRequest) (*models.PersonalTodo, error)

	UpdateTodo(ctx context.Context, id, userID string, req *UpdateTodoRequest) (*models.PersonalTodo, error)

	DeleteTodo(ctx context.Context, id, userID string) error

	// MoveTodo places the to-do at index (clamped) and returns the reordered list
	MoveTodo(ctx context.Context, id, userID string, index int) ([]models.PersonalTodo, error)
}
