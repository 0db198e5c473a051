package services

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

type CreateTaskRequest struct {
	ProjectID   string     `json:"project_id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  Optional[string]
	DueDate     Optional[time.Time]
}

// MoveTaskRequest is a drag-and-drop drop target
type MoveTaskRequest struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

// TaskService defines business logic for tasks, board ordering and dependencies
type TaskService interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*models.Task, error)

	GetTask(ctx context.Context, id, userID string) (*models.Task, error)

	// ListTasks lists a project's tasks; filter.ProjectID is required
	ListTasks(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error)

	// ListMyTasks lists tasks assigned to the user across projects
	ListMyTasks(ctx context.Context, userID string) ([]models.Task, error)

	UpdateTask(ctx context.Context, id, userID string, req *UpdateTaskRequest) (*models.Task, error)

	DeleteTask(ctx context.Context, id, userID string) error

	// MoveTask places the task in req.Status at req.Index (clamped) and renumbers both columns
	MoveTask(ctx context.Context, id, userID string, req *MoveTaskRequest) (*models.Task, error)

	AddDependency(ctx context.Context, taskID, userID, dependsOnID string) (*models.TaskDependency, error)

	RemoveDependency(ctx context.Context, taskID, userID, dependsOnID string) error

	GetDependencyGraph(ctx context.Context, projectID, userID string) (*models.DependencyGraph, error)
}
