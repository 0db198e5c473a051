package models

import (
	"encoding/json"
	"time"
)

// Change feed actions
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Change feed table names (logical, without environment prefix)
const (
	TableProjects      = "projects"
	TableMembers       = "project_members"
	TableTasks         = "tasks"
	TableDependencies  = "task_dependencies"
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableTodos         = "personal_todos"
	TableSuggestions   = "suggestions"
	TableMeetings      = "meetings"
)

// UserScopedTables carry rows that only their owner may observe
var UserScopedTables = map[string]bool{
	TableNotifications: true,
	TableTodos:         true,
}

// OrgWideTables carry rows every signed-in user may observe without a project
var OrgWideTables = map[string]bool{
	TableSuggestions: true,
}

// ChangeEvent is one row-level change published after a successful write
type ChangeEvent struct {
	Seq        int64           `json:"seq"`
	Table      string          `json:"table"`
	Action     string          `json:"action"`
	ProjectID  string          `json:"project_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"` // Recipient for user-scoped tables
	RecordID   string          `json:"record_id"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewChangeEvent builds an event with the record marshalled to JSON.
// A record that fails to marshal is omitted; subscribers refetch by RecordID.
func NewChangeEvent(table, action, projectID, userID, recordID string, record interface{}) ChangeEvent {
	ev := ChangeEvent{
		Table:      table,
		Action:     action,
		ProjectID:  projectID,
		UserID:     userID,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	if record != nil {
		if data, err := json.Marshal(record); err == nil {
			ev.Record = data
		}
	}
	return ev
}
