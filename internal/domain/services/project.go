package services

import (
	"context"
	"time"

	"teamhub/internal/domain/models"
)

type CreateProjectRequest struct {
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateProjectRequest struct {
	Name        *string
	Description *string
	Status      *string
	StartDate   Optional[time.Time]
	DueDate     Optional[time.Time]
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ProjectService defines business logic operations for projects and memberships
type ProjectService interface {
	// CreateProject creates a project and makes the creator its owner
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)

	GetProject(ctx context.Context, id, userID string) (*models.Project, error)

	// ListProjects returns the projects visible to the user with progress aggregates
	ListProjects(ctx context.Context, userID string) ([]models.ProjectSummary, error)

	UpdateProject(ctx context.Context, id, userID string, req *UpdateProjectRequest) (*models.Project, error)

	// DeleteProject soft-deletes a project and returns it with deleted_at set
	DeleteProject(ctx context.Context, id, userID string) (*models.Project, error)

	ListMembers(ctx context.Context, projectID, userID string) ([]models.ProjectMember, error)

	AddMember(ctx context.Context, projectID, actorID string, req *AddMemberRequest) (*models.ProjectMember, error)

	UpdateMemberRole(ctx context.Context, projectID, actorID, memberID, role string) (*models.ProjectMember, error)

	// RemoveMember removes a member; members may always remove themselves (leave)
	RemoveMember(ctx context.Context, projectID, actorID, memberID string) error
}
