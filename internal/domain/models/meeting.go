package models

import "time"

const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusCancelled = "cancelled"
)

const (
	MeetingResponsePending  = "pending"
	MeetingResponseAccepted = "accepted"
	MeetingResponseDeclined = "declined"
)

type Meeting struct {
	ID           string               `json:"id"`
	ProjectID    *string              `json:"project_id,omitempty"`
	OrganizerID  string               `json:"organizer_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Location     string               `json:"location"`
	StartsAt     time.Time            `json:"starts_at"`
	EndsAt       time.Time            `json:"ends_at"`
	Status       string               `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Participants []MeetingParticipant `json:"participants"`
}

type MeetingParticipant struct {
	MeetingID string       `json:"meeting_id"`
	UserID    string       `json:"user_id"`
	Response  string       `json:"response"`
	User      *UserSummary `json:"user,omitempty"`
}

// HasParticipant reports whether userID is invited (organizer counts)
func (m *Meeting) HasParticipant(userID string) bool {
	if m.OrganizerID == userID {
		return true
	}
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
