package services

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

type ScheduleMeetingRequest struct {
	OrganizerID    string    `json:"organizer_id"`
	ProjectID      *string   `json:"project_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	ParticipantIDs []string  `json:"participant_ids"`
}

type UpdateMeetingRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Location       *string    `json:"location"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	ParticipantIDs []string   `json:"participant_ids"` // nil = unchanged
}

// MeetingService defines meeting scheduling operations
type MeetingService interface {
	ScheduleMeeting(ctx context.Context, req *ScheduleMeetingRequest) (*models.Meeting, error)

	// ListMeetings returns meetings visible to the user overlapping [from, to)
	ListMeetings(ctx context.Context, userID string, from, to time.Time) ([]models.Meeting, error)

	GetMeeting(ctx context.Context, id, userID string) (*models.Meeting, error)

	UpdateMeeting(ctx context.Context, id, userID string, req *UpdateMeetingRequest) (*models.Meeting, error)

	CancelMeeting(ctx context.Context, id, userID string) (*models.Meeting, error)

	DeleteMeeting(ctx context.Context, id, userID string) error

	RespondToMeeting(ctx context.Context, id, userID, response string) (*models.Meeting, error)
}
