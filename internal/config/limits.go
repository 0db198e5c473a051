package config

import "time"

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxDescriptionLength bounds free-text descriptions on projects, tasks and meetings.
	MaxDescriptionLength = 10000

	// MaxTaskTitleLength is the maximum length for task and to-do titles.
	MaxTaskTitleLength = 255

	// MaxMessageLength is the maximum length of a single chat message.
	MaxMessageLength = 4000

	// MaxSuggestionTitleLength is the maximum length for suggestion titles.
	MaxSuggestionTitleLength = 200

	// MaxSuggestionBodyLength is the maximum length for suggestion bodies and review notes.
	MaxSuggestionBodyLength = 5000

	// MaxMeetingTitleLength is the maximum length for meeting titles.
	MaxMeetingTitleLength = 255

	// MaxMeetingDuration caps a single meeting. Multi-day events are not meetings.
	MaxMeetingDuration = 24 * time.Hour

	// MaxFullNameLength is the maximum length for profile names.
	MaxFullNameLength = 120

	// DefaultPageSize is used when a list endpoint receives no limit.
	DefaultPageSize = 50

	// MaxPageSize caps any list endpoint limit.
	MaxPageSize = 200

	// DueSoonWindow is how far ahead a task due date counts as "due soon".
	DueSoonWindow = 7 * 24 * time.Hour

	// UpcomingMeetingsWindow is the dashboard look-ahead for meetings.
	UpcomingMeetingsWindow = 7 * 24 * time.Hour
)
