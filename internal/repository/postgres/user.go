package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const userColumns = `id, email, full_name, avatar_url, job_title, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.AvatarURL,
		&u.JobTitle,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert inserts the profile, or refreshes only the email of an existing one.
// Name and avatar come from claims on first sign-in; after that they belong to the user.
func (r *PostgresUserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, full_name, avatar_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			updated_at = CASE
				WHEN %[1]s.email IS DISTINCT FROM EXCLUDED.email THEN NOW()
				ELSE %[1]s.updated_at
			END
		RETURNING %s
	`, r.tables.Users, userColumns)

	role := user.Role
	if role == "" {
		role = models.UserRoleMember
	}

	executor := GetExecutor(ctx, r.pool)
	stored, err := scanUser(executor.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.AvatarURL,
		role,
	))
	if err != nil {
		if IsPgInvalidInputError(err) {
			return domain.Validation("invalid user id %q", user.ID)
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	*user = *stored
	return nil
}

// GetByID retrieves a profile by id
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	user, err := scanUser(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Search matches the start of the name, any word of the name, or the email
func (r *PostgresUserRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE $1 = ''
			OR full_name ILIKE $1 || '%%'
			OR full_name ILIKE '%% ' || $1 || '%%'
			OR email ILIKE $1 || '%%'
		ORDER BY full_name, email
		LIMIT $2
	`, userColumns, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateProfile writes the user-editable fields
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET full_name = $1, avatar_url = $2, job_title = $3, updated_at = $4
		WHERE id = $5
		RETURNING created_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		user.FullName,
		user.AvatarURL,
		user.JobTitle,
		user.UpdatedAt,
		user.ID,
	).Scan(&user.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return domain.NotFound("user", user.ID)
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

// UpdateRole sets the global role
func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, r.tables.Users, userColumns)

	executor := GetExecutor(ctx, r.pool)
	user, err := scanUser(executor.QueryRow(ctx, query, role, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("user", id)
		}
		if IsPgCheckError(err) {
			return nil, domain.Validation("invalid role %q", role)
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}
	return user, nil
}

// GetSummaries resolves ids to slim profiles. Unknown ids are absent from the map.
func (r *PostgresUserRepository) GetSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT id, full_name, email, avatar_url
		FROM %s
		WHERE id = ANY($1::uuid[])
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return out, nil
		}
		return nil, fmt.Errorf("get user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.Email, &s.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		out[s.ID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user summaries: %w", err)
	}
	return out, nil
}
