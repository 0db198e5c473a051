package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresSuggestionRepository implements the SuggestionRepository interface
type PostgresSuggestionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(config *RepositoryConfig) repositories.SuggestionRepository {
	return &PostgresSuggestionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// selectSuggestions expects the viewer id as $1
func (r *PostgresSuggestionRepository) selectSuggestions() string {
	return fmt.Sprintf(`
		SELECT s.id, s.author_id, s.project_id, s.title, s.body, s.category, s.status,
			(SELECT COUNT(*) FROM %[2]s v WHERE v.suggestion_id = s.id) AS vote_count,
			EXISTS (SELECT 1 FROM %[2]s v WHERE v.suggestion_id = s.id AND v.user_id = $1),
			s.reviewer_id, s.review_note, s.created_at, s.updated_at,
			u.id, u.full_name, u.email, u.avatar_url
		FROM %[1]s s
		LEFT JOIN %[3]s u ON u.id = s.author_id
	`, r.tables.Suggestions, r.tables.SuggestionVotes, r.tables.Users)
}

func scanSuggestion(row pgx.Row) (*models.Suggestion, error) {
	var s models.Suggestion
	var uid, name, email, avatar *string
	err := row.Scan(
		&s.ID,
		&s.AuthorID,
		&s.ProjectID,
		&s.Title,
		&s.Body,
		&s.Category,
		&s.Status,
		&s.VoteCount,
		&s.VotedByMe,
		&s.ReviewerID,
		&s.ReviewNote,
		&s.CreatedAt,
		&s.UpdatedAt,
		&uid, &name, &email, &avatar,
	)
	if err != nil {
		return nil, err
	}
	s.Author = summaryFromJoin(uid, name, email, avatar)
	return &s, nil
}

// Create inserts a suggestion
func (r *PostgresSuggestionRepository) Create(ctx context.Context, s *models.Suggestion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (author_id, project_id, title, body, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.AuthorID,
		s.ProjectID,
		s.Title,
		s.Body,
		s.Category,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return domain.Validation("project does not exist")
		}
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// GetByID returns a suggestion with vote aggregates for the viewer
func (r *PostgresSuggestionRepository) GetByID(ctx context.Context, id, viewerID string) (*models.Suggestion, error) {
	executor := GetExecutor(ctx, r.pool)
	s, err := scanSuggestion(executor.QueryRow(ctx, r.selectSuggestions()+` WHERE s.id = $2`, viewerID, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("suggestion", id)
		}
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return s, nil
}

// List orders by vote count DESC then created_at DESC
func (r *PostgresSuggestionRepository) List(ctx context.Context, filter models.SuggestionFilter, viewerID string) ([]models.Suggestion, error) {
	args := []interface{}{viewerID}
	var conds []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conds = append(conds, fmt.Sprintf("s.project_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("s.category = $%d", len(args)))
	}

	query := r.selectSuggestions()
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY vote_count DESC, s.created_at DESC, s.id"

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return nil, domain.Validation("malformed project id")
		}
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	out := []models.Suggestion{}
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return out, nil
}

// Update writes content, status and review fields
func (r *PostgresSuggestionRepository) Update(ctx context.Context, s *models.Suggestion) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, body = $2, category = $3, status = $4, reviewer_id = $5, review_note = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		s.Title,
		s.Body,
		s.Category,
		s.Status,
		s.ReviewerID,
		s.ReviewNote,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update suggestion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("suggestion", s.ID)
	}
	return nil
}

// Delete removes a suggestion (votes cascade)
func (r *PostgresSuggestionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete suggestion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("suggestion", id)
	}
	return nil
}

// ToggleVote removes the user's vote if present, otherwise adds it
func (r *PostgresSuggestionRepository) ToggleVote(ctx context.Context, suggestionID, userID string) (bool, error) {
	executor := GetExecutor(ctx, r.pool)

	del := fmt.Sprintf(`DELETE FROM %s WHERE suggestion_id = $1 AND user_id = $2`, r.tables.SuggestionVotes)
	result, err := executor.Exec(ctx, del, suggestionID, userID)
	if err != nil {
		return false, fmt.Errorf("remove vote: %w", err)
	}
	if result.RowsAffected() > 0 {
		return false, nil
	}

	ins := fmt.Sprintf(`
		INSERT INTO %s (suggestion_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`, r.tables.SuggestionVotes)
	if _, err := executor.Exec(ctx, ins, suggestionID, userID); err != nil {
		if IsPgForeignKeyError(err) {
			return false, domain.NotFound("suggestion", suggestionID)
		}
		return false, fmt.Errorf("add vote: %w", err)
	}
	return true, nil
}
