package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
)

// PostgresMeetingRepository implements the MeetingRepository interface
type PostgresMeetingRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(config *RepositoryConfig) repositories.MeetingRepository {
	return &PostgresMeetingRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const meetingColumns = `id, project_id, organizer_id, title, description, location, starts_at, ends_at, status, created_at, updated_at`

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var m models.Meeting
	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.OrganizerID,
		&m.Title,
		&m.Description,
		&m.Location,
		&m.StartsAt,
		&m.EndsAt,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Participants = []models.MeetingParticipant{}
	return &m, nil
}

// Create inserts the meeting and its participants
func (r *PostgresMeetingRepository) Create(ctx context.Context, m *models.Meeting) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, organizer_id, title, description, location, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, r.tables.Meetings)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		m.ProjectID,
		m.OrganizerID,
		m.Title,
		m.Description,
		m.Location,
		m.StartsAt,
		m.EndsAt,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if IsPgCheckError(err) {
			return domain.Validation("ends_at must be after starts_at")
		}
		if IsPgForeignKeyError(err) {
			return domain.Validation("project or organizer does not exist")
		}
		return fmt.Errorf("create meeting: %w", err)
	}

	for i := range m.Participants {
		m.Participants[i].MeetingID = m.ID
	}
	return r.insertParticipants(ctx, m.ID, m.Participants)
}

func (r *PostgresMeetingRepository) insertParticipants(ctx context.Context, meetingID string, participants []models.MeetingParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	userIDs := make([]string, len(participants))
	responses := make([]string, len(participants))
	for i, p := range participants {
		userIDs[i] = p.UserID
		responses[i] = p.Response
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (meeting_id, user_id, response)
		SELECT $1, v.user_id, v.response
		FROM unnest($2::uuid[], $3::text[]) AS v(user_id, response)
		ON CONFLICT (meeting_id, user_id) DO NOTHING
	`, r.tables.MeetingParticipants)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, meetingID, userIDs, responses); err != nil {
		if IsPgForeignKeyError(err) {
			return domain.Validation("participant does not exist")
		}
		return fmt.Errorf("insert participants: %w", err)
	}
	return nil
}

// loadParticipants fills Participants for every meeting in one query
func (r *PostgresMeetingRepository) loadParticipants(ctx context.Context, meetings []*models.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}
	byID := make(map[string]*models.Meeting, len(meetings))
	ids := make([]string, 0, len(meetings))
	for _, m := range meetings {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query := fmt.Sprintf(`
		SELECT p.meeting_id, p.user_id, p.response, u.id, u.full_name, u.email, u.avatar_url
		FROM %s p
		LEFT JOIN %s u ON u.id = p.user_id
		WHERE p.meeting_id = ANY($1::uuid[])
		ORDER BY u.full_name, p.user_id
	`, r.tables.MeetingParticipants, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.MeetingParticipant
		var uid, name, email, avatar *string
		if err := rows.Scan(&p.MeetingID, &p.UserID, &p.Response, &uid, &name, &email, &avatar); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		p.User = summaryFromJoin(uid, name, email, avatar)
		if m, ok := byID[p.MeetingID]; ok {
			m.Participants = append(m.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participants: %w", err)
	}
	return nil
}

// GetByID returns the meeting with participants
func (r *PostgresMeetingRepository) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, meetingColumns, r.tables.Meetings)

	executor := GetExecutor(ctx, r.pool)
	m, err := scanMeeting(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, domain.NotFound("meeting", id)
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if err := r.loadParticipants(ctx, []*models.Meeting{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// ListForUser returns meetings overlapping [from, to) that the user organizes or attends
func (r *PostgresMeetingRepository) ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Meeting, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s m
		WHERE m.starts_at < $3 AND m.ends_at > $2
			AND (m.organizer_id = $1 OR EXISTS (
				SELECT 1 FROM %s p WHERE p.meeting_id = m.id AND p.user_id = $1
			))
		ORDER BY m.starts_at, m.id
	`, prefixColumns("m", meetingColumns), r.tables.Meetings, r.tables.MeetingParticipants)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}

	defer rows.Close()

	var ptrs []*models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		ptrs = append(ptrs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	// Release the connection before the participant query (matters inside a transaction)
	rows.Close()

	if err := r.loadParticipants(ctx, ptrs); err != nil {
		return nil, err
	}

	meetings := make([]models.Meeting, 0, len(ptrs))
	for _, m := range ptrs {
		meetings = append(meetings, *m)
	}
	return meetings, nil
}

// Update writes the editable meeting fields and status
func (r *PostgresMeetingRepository) Update(ctx context.Context, m *models.Meeting) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, location = $3, starts_at = $4, ends_at = $5, status = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Meetings)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		m.Title,
		m.Description,
		m.Location,
		m.StartsAt,
		m.EndsAt,
		m.Status,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		if IsPgCheckError(err) {
			return domain.Validation("ends_at must be after starts_at")
		}
		return fmt.Errorf("update meeting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("meeting", m.ID)
	}
	return nil
}

// ReplaceParticipants drops users no longer invited and adds new ones.
// Retained users keep their response.
func (r *PostgresMeetingRepository) ReplaceParticipants(ctx context.Context, meetingID string, participants []models.MeetingParticipant) error {
	keep := make([]string, len(participants))
	for i, p := range participants {
		keep[i] = p.UserID
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE meeting_id = $1 AND NOT (user_id = ANY($2::uuid[]))
	`, r.tables.MeetingParticipants)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, meetingID, keep); err != nil {
		return fmt.Errorf("remove participants: %w", err)
	}
	return r.insertParticipants(ctx, meetingID, participants)
}

// SetResponse records a participant's RSVP
func (r *PostgresMeetingRepository) SetResponse(ctx context.Context, meetingID, userID, response string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET response = $1
		WHERE meeting_id = $2 AND user_id = $3
	`, r.tables.MeetingParticipants)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, response, meetingID, userID)
	if err != nil {
		return fmt.Errorf("set meeting response: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("participant", userID)
	}
	return nil
}

// Delete removes a meeting (participants cascade)
func (r *PostgresMeetingRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Meetings)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFound("meeting", id)
	}
	return nil
}
