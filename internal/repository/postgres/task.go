package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresTaskRepository implements the TaskRepository interface
type PostgresTaskRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(config *RepositoryConfig) repositories.TaskRepository {
	return &PostgresTaskRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// columnOrder sorts rows by board column rather than alphabetically
const columnOrder = `array_position(ARRAY['todo', 'in_progress', 'review', 'done'], t.status)`

func (r *PostgresTaskRepository) selectTasks() string {
	return fmt.Sprintf(`
		SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority, t.assignee_id,
			t.created_by, t.due_date, t.position, t.completed_at, t.created_at, t.updated_at,
			u.id, u.full_name, u.email, u.avatar_url
		FROM %s t
		JOIN %s p ON p.id = t.project_id AND p.deleted_at IS NULL
		LEFT JOIN %s u ON u.id = t.assignee_id
	`, r.tables.Tasks, r.tables.Projects, r.tables.Users)
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var uid, name, email, avatar *string
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.AssigneeID,
		&t.CreatedBy,
		&t.DueDate,
		&t.Position,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&uid, &name, &email, &avatar,
	)
	if err != nil {
		return nil, err
	}
	t.Assignee = summaryFromJoin(uid, name, email, avatar)
	return &t, nil
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	defer rows.Close()
	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts a task at the end of its status column. Callers hold
// LockColumn so concurrent creates cannot read the same MAX(position).
func (r *PostgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (project_id, title, description, status, priority, assignee_id, created_by,
			due_date, position, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM %[1]s WHERE project_id = $1 AND status = $4),
			$9, $10, $11)
		RETURNING id, position, created_at, updated_at
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssigneeID,
		task.CreatedBy,
		task.DueDate,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID, &task.Position, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return domain.NotFound("project", task.ProjectID)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task with its assignee
func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := r.selectTasks() + ` WHERE t.id = $1`

	executor := GetExecutor(ctx, r.pool)
	task, err := scanTask(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("task", id)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks matching the filter ordered by column then position
func (r *PostgresTaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ProjectID != "" {
		add("t.project_id = $%d", filter.ProjectID)
	}
	if filter.AssigneeID != "" {
		add("t.assignee_id = $%d", filter.AssigneeID)
	}
	if filter.Status != "" {
		add("t.status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("t.priority = $%d", filter.Priority)
	}
	if s := escapeLike(filter.Search); s != "" {
		add("(t.title ILIKE '%%' || $%[1]d || '%%' OR t.description ILIKE '%%' || $%[1]d || '%%')", s)
	}
	if filter.OverdueOnly {
		conds = append(conds, "t.status <> 'done' AND t.due_date IS NOT NULL AND t.due_date < NOW()")
	}
	if filter.ActiveOnly {
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM %s pm JOIN %s p ON p.id = pm.project_id
			WHERE pm.project_id = t.project_id AND pm.user_id = t.assignee_id AND p.deleted_at IS NULL)`,
			r.tables.ProjectMembers, r.tables.Projects))
	}

	query := r.selectTasks()
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + columnOrder + ", t.position, t.created_at"

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return nil, domain.Validation("malformed id in task filter")
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListForProjects returns every task of the given projects
func (r *PostgresTaskRepository) ListForProjects(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	if len(projectIDs) == 0 {
		return []models.Task{}, nil
	}
	query := r.selectTasks() + ` WHERE t.project_id = ANY($1::uuid[]) ORDER BY t.project_id, ` + columnOrder + `, t.position`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("list tasks for projects: %w", err)
	}
	return collectTasks(rows)
}

// Update writes the editable task fields. Position is owned by SetPositions.
func (r *PostgresTaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, status = $3, priority = $4, assignee_id = $5,
			due_date = $6, completed_at = $7, updated_at = $8
		WHERE id = $9
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssigneeID,
		task.DueDate,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return domain.Validation("assignee does not exist")
		}
		return fmt.Errorf("update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("task", task.ID)
	}
	return nil
}

// Delete removes a task (dependencies cascade)
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("task", id)
	}
	return nil
}

// ColumnIDs returns one column's task ids in position order, locking the rows
// so concurrent moves into the same column serialize
func (r *PostgresTaskRepository) ColumnIDs(ctx context.Context, projectID, status string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE project_id = $1 AND status = $2
		ORDER BY position, created_at
		FOR UPDATE
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID, status)
	if err != nil {
		return nil, fmt.Errorf("column ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task ids: %w", err)
	}
	return ids, nil
}

// LockColumn takes the column lock that Create and moves share. Row locks
// alone cannot stop two inserts into an empty column.
func (r *PostgresTaskRepository) LockColumn(ctx context.Context, projectID, status string) error {
	return advisoryXactLock(ctx, GetExecutor(ctx, r.pool), r.tables.Tasks+":"+projectID+":"+status)
}

// SetPositions writes status/position for every row in one statement
func (r *PostgresTaskRepository) SetPositions(ctx context.Context, positions []models.TaskPosition) error {
	if len(positions) == 0 {
		return nil
	}

	ids := make([]string, len(positions))
	statuses := make([]string, len(positions))
	idx := make([]int32, len(positions))
	for i, p := range positions {
		ids[i] = p.ID
		statuses[i] = p.Status
		idx[i] = int32(p.Position)
	}

	query := fmt.Sprintf(`
		UPDATE %s t
		SET status = v.status, position = v.position, updated_at = NOW()
		FROM unnest($1::uuid[], $2::text[], $3::int[]) AS v(id, status, position)
		WHERE t.id = v.id
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, statuses, idx); err != nil {
		return fmt.Errorf("set task positions: %w", err)
	}
	return nil
}

// PostgresDependencyRepository implements the DependencyRepository interface
type PostgresDependencyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDependencyRepository creates a new task dependency repository
func NewDependencyRepository(config *RepositoryConfig) repositories.DependencyRepository {
	return &PostgresDependencyRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a dependency edge
func (r *PostgresDependencyRepository) Create(ctx context.Context, dep *models.TaskDependency) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, task_id, depends_on_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, r.tables.TaskDependencies)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, dep.ProjectID, dep.TaskID, dep.DependsOnID).Scan(&dep.ID, &dep.CreatedAt)
	if err != nil {
		switch {
		case IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      "dependency already exists",
				ResourceType: "dependency",
				ResourceID:   dep.DependsOnID,
			}
		case IsPgCheckError(err):
			return domain.Validation("a task cannot depend on itself")
		case IsPgForeignKeyError(err):
			return domain.NotFound("task", dep.DependsOnID)
		}
		return fmt.Errorf("create dependency: %w", err)
	}
	return nil
}

// Delete removes one edge
func (r *PostgresDependencyRepository) Delete(ctx context.Context, taskID, dependsOnID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1 AND depends_on_id = $2`, r.tables.TaskDependencies)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, taskID, dependsOnID)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return domain.NotFound("dependency", dependsOnID)
		}
		return fmt.Errorf("delete dependency: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("dependency", dependsOnID)
	}
	return nil
}

// ListByProject returns every edge in the project
func (r *PostgresDependencyRepository) ListByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, task_id, depends_on_id, created_at
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at, id
	`, r.tables.TaskDependencies)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	deps := []models.TaskDependency{}
	for rows.Next() {
		var d models.TaskDependency
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.TaskID, &d.DependsOnID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return deps, nil
}

// DeleteForTask removes every edge touching the task
func (r *PostgresDependencyRepository) DeleteForTask(ctx context.Context, taskID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1 OR depends_on_id = $1`, r.tables.TaskDependencies)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, taskID); err != nil {
		return fmt.Errorf("delete dependencies for task: %w", err)
	}
	return nil
}

// LockGraph makes the read-check-insert of AddDependency atomic per project
func (r *PostgresDependencyRepository) LockGraph(ctx context.Context, projectID string) error {
	return advisoryXactLock(ctx, GetExecutor(ctx, r.pool), r.tables.TaskDependencies+":"+projectID)
}
