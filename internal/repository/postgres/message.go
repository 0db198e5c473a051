package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresMessageRepository implements the MessageRepository interface
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresMessageRepository) selectMessages() string {
	return fmt.Sprintf(`
		SELECT m.id, m.project_id, m.sender_id, m.content, m.edited_at, m.created_at,
			u.id, u.full_name, u.email, u.avatar_url
		FROM %s m
		LEFT JOIN %s u ON u.id = m.sender_id
	`, r.tables.Messages, r.tables.Users)
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var uid, name, email, avatar *string
	if err := row.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.Content, &m.EditedAt, &m.CreatedAt,
		&uid, &name, &email, &avatar); err != nil {
		return nil, err
	}
	m.Sender = summaryFromJoin(uid, name, email, avatar)
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()
	msgs := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// Create inserts a message
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, msg.ProjectID, msg.SenderID, msg.Content, msg.CreatedAt).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if IsPgCheckError(err) {
			return domain.Validation("message content must be 1-4000 characters")
		}
		if IsPgForeignKeyError(err) {
			return domain.NotFound("project", msg.ProjectID)
		}
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// GetByID returns a message with its sender
func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	executor := GetExecutor(ctx, r.pool)
	msg, err := scanMessage(executor.QueryRow(ctx, r.selectMessages()+` WHERE m.id = $1`, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("message", id)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// ListBefore pages backwards through history, newest first. The id compares as
// text, which orders canonical lowercase UUIDs the same way as the uuid type.
func (r *PostgresMessageRepository) ListBefore(ctx context.Context, projectID string, before *models.MessageCursor, limit int) ([]models.Message, error) {
	query := r.selectMessages() + `
		WHERE m.project_id = $1 AND (
			$2::timestamptz IS NULL
			OR m.created_at < $2
			OR (m.created_at = $2 AND $3 <> '' AND m.id::text < $3)
		)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $4
	`

	var beforeAt *time.Time
	beforeID := ""
	if before != nil {
		beforeAt = &before.CreatedAt
		beforeID = strings.ToLower(before.ID)
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID, beforeAt, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return collectMessages(rows)
}

// ListSince returns messages at or after since, oldest first
func (r *PostgresMessageRepository) ListSince(ctx context.Context, projectID string, since time.Time, limit int) ([]models.Message, error) {
	query := r.selectMessages() + `
		WHERE m.project_id = $1 AND m.created_at >= $2
		ORDER BY m.created_at, m.id
		LIMIT $3
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages since: %w", err)
	}
	return collectMessages(rows)
}

// UpdateContent edits the body and stamps edited_at
func (r *PostgresMessageRepository) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET content = $1, edited_at = $2 WHERE id = $3`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, content, editedAt, id)
	if err != nil {
		if IsPgCheckError(err) {
			return domain.Validation("message content must be 1-4000 characters")
		}
		return fmt.Errorf("update message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("message", id)
	}
	return nil
}

// Delete removes a message
func (r *PostgresMessageRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("message", id)
	}
	return nil
}
