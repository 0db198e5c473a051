package services

import "context"

// Project actions checked by ResourceAuthorizer.Require
const (
	ActionProjectUpdate   = "project.update"
	ActionProjectDelete   = "project.delete"
	ActionMemberManage    = "member.manage"
	ActionTaskCreate      = "task.create"
	ActionTaskUpdate      = "task.update"
	ActionTaskDelete      = "task.delete"
	ActionTaskAssign      = "task.assign"
	ActionMessageSend     = "message.send"
	ActionMessageModerate = "message.moderate"
	ActionMeetingSchedule = "meeting.schedule"
	ActionReportView      = "report.view"
)

// ResourceAuthorizer checks if a user can access project-scoped resources.
// Services call it before operating on resources; repositories never filter by caller.
type ResourceAuthorizer interface {
	// CanAccessProject succeeds for project members and global admins
	CanAccessProject(ctx context.Context, userID, projectID string) error

	// Require succeeds when the user's project role grants action (global admins always pass)
	Require(ctx context.Context, userID, projectID, action string) error

	// IsAdmin reports whether the user holds the global admin role
	IsAdmin(ctx context.Context, userID string) (bool, error)
}
