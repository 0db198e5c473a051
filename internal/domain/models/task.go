package models

import "time"

// Task statuses double as board columns, in board order
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// Task priorities, lowest to highest
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

var (
	TaskStatuses   = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}
	TaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}
)

type Task struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	AssigneeID  *string      `json:"assignee_id,omitempty"`
	CreatedBy   string       `json:"created_by"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Position    int          `json:"position"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignee    *UserSummary `json:"assignee,omitempty"`
}

// IsDone reports whether the task sits in the done column
func (t *Task) IsDone() bool {
	return t.Status == TaskStatusDone
}

// IsOverdue reports whether an unfinished task is past its due date at now
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsDone() && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskFilter narrows task listings. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID   string
	AssigneeID  string
	Status      string
	Priority    string
	Search      string
	OverdueOnly bool
	// ActiveOnly drops tasks in deleted projects or projects the assignee has left
	ActiveOnly bool
}

// TaskPosition is a single row of a column renumbering
type TaskPosition struct {
	ID       string
	Status   string
	Position int
}
