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
	"teamhub/internal/stats"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const projectColumns = `id, owner_id, name, description, status, start_date, due_date, created_at, updated_at, deleted_at`

func scanProject(row pgx.Row, p *models.Project, extra ...any) error {
	dest := []any{
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.StartDate,
		&p.DueDate,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name, description, status, start_date, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.OwnerID,
		project.Name,
		project.Description,
		project.Status,
		project.StartDate,
		project.DueDate,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return r.nameConflict(ctx, project.OwnerID, project.Name)
		}
		if IsPgCheckError(err) {
			return domain.Validation("due_date must not be before start_date")
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted project
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, projectColumns, r.tables.Projects)

	var project models.Project
	executor := GetExecutor(ctx, r.pool)
	if err := scanProject(executor.QueryRow(ctx, query, id), &project); err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("project", id)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &project, nil
}

// ListForUser retrieves the user's projects with member and task counts, ordered by updated_at DESC
func (r *PostgresProjectRepository) ListForUser(ctx context.Context, userID string, all bool) ([]models.ProjectSummary, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.owner_id, p.name, p.description, p.status, p.start_date, p.due_date,
			p.created_at, p.updated_at, p.deleted_at,
			(SELECT COUNT(*) FROM %[2]s WHERE project_id = p.id),
			(SELECT COUNT(*) FROM %[3]s WHERE project_id = p.id),
			(SELECT COUNT(*) FROM %[3]s WHERE project_id = p.id AND status = 'done'),
			COALESCE(m.role, '')
		FROM %[1]s p
		LEFT JOIN %[2]s m ON m.project_id = p.id AND m.user_id = $1
		WHERE p.deleted_at IS NULL AND ($2 OR m.user_id IS NOT NULL)
		ORDER BY p.updated_at DESC
	`, r.tables.Projects, r.tables.ProjectMembers, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, all)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.ProjectSummary{}
	for rows.Next() {
		var s models.ProjectSummary
		if err := scanProject(rows, &s.Project, &s.MemberCount, &s.TaskCount, &s.DoneCount, &s.MyRole); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		s.CompletionRate = stats.CompletionRate(s.DoneCount, s.TaskCount)
		projects = append(projects, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// Update writes the editable project fields
func (r *PostgresProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, status = $3, start_date = $4, due_date = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.StartDate,
		project.DueDate,
		project.UpdatedAt,
		project.ID,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return r.nameConflict(ctx, project.OwnerID, project.Name)
		}
		if IsPgCheckError(err) {
			return domain.Validation("due_date must not be before start_date")
		}
		return fmt.Errorf("update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NotFound("project", project.ID)
	}

	return nil
}

// Delete soft-deletes a project
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Projects, projectColumns)

	var project models.Project
	executor := GetExecutor(ctx, r.pool)
	if err := scanProject(executor.QueryRow(ctx, query, id), &project); err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NotFound("project", id)
		}
		return nil, fmt.Errorf("delete project: %w", err)
	}

	return &project, nil
}

// nameConflict builds the structured conflict for a duplicate name,
// falling back to a plain conflict if the existing row can't be found
func (r *PostgresProjectRepository) nameConflict(ctx context.Context, ownerID, name string) error {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE owner_id = $1 AND name = $2 AND deleted_at IS NULL
	`, r.tables.Projects)

	var id string
	// Inside an aborted transaction this lookup fails too; use the pool directly
	if err := r.pool.QueryRow(ctx, query, ownerID, name).Scan(&id); err != nil {
		return fmt.Errorf("project '%s' already exists: %w", name, domain.ErrConflict)
	}

	return &domain.ConflictError{
		Message:      fmt.Sprintf("project '%s' already exists", name),
		ResourceType: "project",
		ResourceID:   id,
	}
}

// PostgresMemberRepository implements the MemberRepository interface
type PostgresMemberRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMemberRepository creates a new project member repository
func NewMemberRepository(config *RepositoryConfig) repositories.MemberRepository {
	return &PostgresMemberRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Add inserts a membership; a repeat add is a conflict
func (r *PostgresMemberRepository) Add(ctx context.Context, member *models.ProjectMember) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING joined_at
	`, r.tables.ProjectMembers)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, member.ProjectID, member.UserID, member.Role).Scan(&member.JoinedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "user is already a member of this project",
				ResourceType: "member",
				ResourceID:   member.UserID,
			}
		}
		if IsPgForeignKeyError(err) {
			return domain.NotFound("user", member.UserID)
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// Get returns the membership row
func (r *PostgresMemberRepository) Get(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	query := fmt.Sprintf(`
		SELECT project_id, user_id, role, joined_at
		FROM %s
		WHERE project_id = $1 AND user_id = $2
	`, r.tables.ProjectMembers)

	var m models.ProjectMember
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("member", userID)
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// List returns members with their profiles, owner first then by join date
func (r *PostgresMemberRepository) List(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	query := fmt.Sprintf(`
		SELECT m.project_id, m.user_id, m.role, m.joined_at,
			u.id, u.full_name, u.email, u.avatar_url
		FROM %s m
		LEFT JOIN %s u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY (m.role = 'owner') DESC, m.joined_at, m.user_id
	`, r.tables.ProjectMembers, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.ProjectMember{}
	for rows.Next() {
		var m models.ProjectMember
		var uid, name, email, avatar *string
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &uid, &name, &email, &avatar); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.User = summaryFromJoin(uid, name, email, avatar)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// UpdateRole changes a member's project role
func (r *PostgresMemberRepository) UpdateRole(ctx context.Context, projectID, userID, role string) (*models.ProjectMember, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $1
		WHERE project_id = $2 AND user_id = $3
		RETURNING project_id, user_id, role, joined_at
	`, r.tables.ProjectMembers)

	var m models.ProjectMember
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, role, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NotFound("member", userID)
		}
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return &m, nil
}

// Remove deletes a membership
func (r *PostgresMemberRepository) Remove(ctx context.Context, projectID, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE project_id = $1 AND user_id = $2`, r.tables.ProjectMembers)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("member", userID)
	}
	return nil
}

// MemberIDs returns the subset of userIDs that belong to the project
func (r *PostgresMemberRepository) MemberIDs(ctx context.Context, projectID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}
	for _, id := range userIDs {
		// A malformed id would abort the whole ANY() cast
		if strings.TrimSpace(id) == "" {
			return nil, domain.Validation("empty user id")
		}
	}

	query := fmt.Sprintf(`
		SELECT user_id
		FROM %s
		WHERE project_id = $1 AND user_id = ANY($2::uuid[])
	`, r.tables.ProjectMembers)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID, userIDs)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return nil, domain.Validation("malformed user id in %v", userIDs)
		}
		return nil, fmt.Errorf("member ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member ids: %w", err)
	}
	return ids, nil
}
