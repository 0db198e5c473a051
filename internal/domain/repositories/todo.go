package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// TodoRepository defines data access operations for personal to-dos
type TodoRepository interface {
	// Create appends the to-do after the user's last one
	Create(ctx context.Context, todo *models.PersonalTodo) error

	GetByID(ctx context.Context, id, userID string) (*models.PersonalTodo, error)

	// List returns the user's to-dos in position order
	List(ctx context.Context, userID string) ([]models.PersonalTodo, error)

	Update(ctx context.Context, todo *models.PersonalTodo) error

	Delete(ctx context.Context, id, userID string) error

	// SetPositions assigns position i to ids[i]. Callers run it inside a transaction.
	SetPositions(ctx context.Context, userID string, ids []string) error
}
