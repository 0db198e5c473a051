package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// TaskRepository defines data access operations for tasks
type TaskRepository interface {
	// Create inserts a task at the end of its status column
	Create(ctx context.Context, task *models.Task) error

	GetByID(ctx context.Context, id string) (*models.Task, error)

	// List returns tasks matching the filter ordered by status column then position
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)

	// ListForProjects returns every task of the given projects (dashboard aggregation)
	ListForProjects(ctx context.Context, projectIDs []string) ([]models.Task, error)

	Update(ctx context.Context, task *models.Task) error

	Delete(ctx context.Context, id string) error

	// ColumnIDs returns the task ids of one status column in position order
	ColumnIDs(ctx context.Context, projectID, status string) ([]string, error)

	// SetPositions writes status/position for each row. Callers run it inside a transaction.
	SetPositions(ctx context.Context, positions []models.TaskPosition) error

	// LockColumn serializes writers of one status column until the transaction ends
	LockColumn(ctx context.Context, projectID, status string) error
}

// DependencyRepository defines data access operations for task dependencies
type DependencyRepository interface {
	Create(ctx context.Context, dep *models.TaskDependency) error

	// Delete removes the edge, ErrNotFound when absent
	Delete(ctx context.Context, taskID, dependsOnID string) error

	ListByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error)

	// DeleteForTask removes every edge touching the task in either direction
	DeleteForTask(ctx context.Context, taskID string) error

	// LockGraph serializes dependency writers of one project until the transaction ends
	LockGraph(ctx context.Context, projectID string) error
}
