package repositories

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

// MeetingRepository defines data access operations for meetings and participants
type MeetingRepository interface {
	// Create inserts the meeting and its participants
	Create(ctx context.Context, m *models.Meeting) error

	// GetByID returns the meeting with participants and their profiles
	GetByID(ctx context.Context, id string) (*models.Meeting, error)

	// ListForUser returns meetings the user organizes or attends that overlap [from, to),
	// ordered by starts_at
	ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Meeting, error)

	Update(ctx context.Context, m *models.Meeting) error

	// ReplaceParticipants rewrites the invitee list, keeping responses of retained users
	ReplaceParticipants(ctx context.Context, meetingID string, participants []models.MeetingParticipant) error

	SetResponse(ctx context.Context, meetingID, userID, response string) error

	Delete(ctx context.Context, id string) error
}
