package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresTodoRepository implements the TodoRepository interface
type PostgresTodoRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTodoRepository creates a new personal to-do repository
func NewTodoRepository(config *RepositoryConfig) repositories.TodoRepository {
	return &PostgresTodoRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const todoColumns = `id, user_id, title, notes, due_date, completed, completed_at, position, created_at, updated_at`

func scanTodo(row pgx.Row) (*models.PersonalTodo, error) {
	var t models.PersonalTodo
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Notes,
		&t.DueDate,
		&t.Completed,
		&t.CompletedAt,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends the to-do after the user's last one
func (r *PostgresTodoRepository) Create(ctx context.Context, todo *models.PersonalTodo) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (user_id, title, notes, due_date, completed, completed_at, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM %[1]s WHERE user_id = $1),
			$7, $8)
		RETURNING id, position, created_at, updated_at
	`, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		todo.UserID,
		todo.Title,
		todo.Notes,
		todo.DueDate,
		todo.Completed,
		todo.CompletedAt,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID, &todo.Position, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's to-dos
func (r *PostgresTodoRepository) GetByID(ctx context.Context, id, userID string) (*models.PersonalTodo, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND user_id = $2`, todoColumns, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	todo, err := scanTodo(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("todo", id)
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return todo, nil
}

// List returns the user's to-dos in position order
func (r *PostgresTodoRepository) List(ctx context.Context, userID string) ([]models.PersonalTodo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY position, created_at
	`, todoColumns, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.PersonalTodo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

// Update writes the editable fields
func (r *PostgresTodoRepository) Update(ctx context.Context, todo *models.PersonalTodo) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, notes = $2, due_date = $3, completed = $4, completed_at = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		todo.Title,
		todo.Notes,
		todo.DueDate,
		todo.Completed,
		todo.CompletedAt,
		todo.UpdatedAt,
		todo.ID,
		todo.UserID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("todo", todo.ID)
	}
	return nil
}

// Delete removes one of the user's to-dos
func (r *PostgresTodoRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return domain.NotFound("todo", id)
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("todo", id)
	}
	return nil
}

// SetPositions assigns position i to ids[i]; rows of other users are untouched
func (r *PostgresTodoRepository) SetPositions(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s t
		SET position = v.ord - 1, updated_at = NOW()
		FROM unnest($1::uuid[]) WITH ORDINALITY AS v(id, ord)
		WHERE t.id = v.id AND t.user_id = $2
	`, r.tables.PersonalTodos)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, userID); err != nil {
		return fmt.Errorf("set todo positions: %w", err)
	}
	return nil
}
