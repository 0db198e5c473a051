package models

import "time"

// Project roles, highest to lowest
const (
	ProjectRoleOwner   = "owner"
	ProjectRoleManager = "manager"
	ProjectRoleMember  = "member"
	ProjectRoleViewer  = "viewer"
)

// AssignableProjectRoles are the roles that can be granted through the members API.
// Ownership is only ever set at project creation.
var AssignableProjectRoles = []string{ProjectRoleManager, ProjectRoleMember, ProjectRoleViewer}

type ProjectMember struct {
	ProjectID string       `json:"project_id"`
	UserID    string       `json:"user_id"`
	Role      string       `json:"role"`
	JoinedAt  time.Time    `json:"joined_at"`
	User      *UserSummary `json:"user,omitempty"`
}
