package models

import "time"

// TaskStats is the derived summary shown on dashboards and reports
type TaskStats struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	CompletionRate float64        `json:"completion_rate"` // 0..1
	Overdue        int            `json:"overdue"`
	DueSoon        int            `json:"due_soon"`
	Unassigned     int            `json:"unassigned"`
	ByStatus       map[string]int `json:"by_status"`
	ByPriority     map[string]int `json:"by_priority"`
}

// MemberWorkload counts one assignee's tasks
type MemberWorkload struct {
	UserID    string       `json:"user_id"`
	User      *UserSummary `json:"user,omitempty"`
	Open      int          `json:"open"`
	Overdue   int          `json:"overdue"`
	Completed int          `json:"completed"`
}

type TodoStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// ProjectProgress is one row of the dashboard project list
type ProjectProgress struct {
	ProjectID      string  `json:"project_id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TaskCount      int     `json:"task_count"`
	CompletionRate float64 `json:"completion_rate"`
	Overdue        int     `json:"overdue"`
}

type Dashboard struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	MyTasks          TaskStats         `json:"my_tasks"`
	Projects         []ProjectProgress `json:"projects"`
	UnreadCount      int               `json:"unread_notifications"`
	UpcomingMeetings []Meeting         `json:"upcoming_meetings"`
	Todos            TodoStats         `json:"todos"`
}

type ProjectReport struct {
	Project     Project          `json:"project"`
	GeneratedAt time.Time        `json:"generated_at"`
	Tasks       TaskStats        `json:"tasks"`
	Workload    []MemberWorkload `json:"workload"`
	MemberCount int              `json:"member_count"`
}
