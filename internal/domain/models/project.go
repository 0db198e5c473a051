package models

import "time"

// Project statuses
const (
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// ProjectStatuses lists every valid project status
var ProjectStatuses = []string{ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusArchived}

type Project struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ProjectSummary is a project row with list-view aggregates joined in
type ProjectSummary struct {
	Project
	MemberCount    int     `json:"member_count"`
	TaskCount      int     `json:"task_count"`
	DoneCount      int     `json:"done_count"`
	CompletionRate float64 `json:"completion_rate"`
	MyRole         string  `json:"my_role,omitempty"`
}
