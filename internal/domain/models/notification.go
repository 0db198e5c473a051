package models

import "time"

// Notification types
const (
	NotificationTaskAssigned       = "task_assigned"
	NotificationTaskStatus         = "task_status"
	NotificationMention            = "mention"
	NotificationMeetingInvite      = "meeting_invite"
	NotificationMeetingCancelled   = "meeting_cancelled"
	NotificationMemberAdded        = "member_added"
	NotificationSuggestionReviewed = "suggestion_reviewed"
)

type Notification struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	ProjectID    *string    `json:"project_id,omitempty"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NotificationFilter narrows a user's notification listing
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}
