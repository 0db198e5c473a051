package models

import "time"

const (
	SuggestionStatusOpen        = "open"
	SuggestionStatusUnderReview = "under_review"
	SuggestionStatusAccepted    = "accepted"
	SuggestionStatusRejected    = "rejected"
	SuggestionStatusImplemented = "implemented"
)

var (
	SuggestionStatuses   = []string{SuggestionStatusOpen, SuggestionStatusUnderReview, SuggestionStatusAccepted, SuggestionStatusRejected, SuggestionStatusImplemented}
	SuggestionCategories = []string{"feature", "bug", "process", "other"}
)

type Suggestion struct {
	ID         string       `json:"id"`
	AuthorID   string       `json:"author_id"`
	ProjectID  *string      `json:"project_id,omitempty"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Category   string       `json:"category"`
	Status     string       `json:"status"`
	VoteCount  int          `json:"vote_count"`
	VotedByMe  bool         `json:"voted_by_me"`
	ReviewerID *string      `json:"reviewer_id,omitempty"`
	ReviewNote *string      `json:"review_note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Author     *UserSummary `json:"author,omitempty"`
}

type SuggestionFilter struct {
	Status    string
	ProjectID string
	Category  string
}
