package repositories

import (
	"context"

	"teamhub/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and fills its generated ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a non-deleted project
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListForUser retrieves projects the user is a member of, ordered by updated_at DESC.
	// With all=true (global admins) every non-deleted project is returned.
	ListForUser(ctx context.Context, userID string, all bool) ([]models.ProjectSummary, error)

	Update(ctx context.Context, project *models.Project) error

	// Delete soft-deletes a project and returns it with deleted_at set
	Delete(ctx context.Context, id string) (*models.Project, error)
}

// MemberRepository defines data access operations for project memberships
type MemberRepository interface {
	Add(ctx context.Context, member *models.ProjectMember) error

	// Get returns the membership row, ErrNotFound when the user is not a member
	Get(ctx context.Context, projectID, userID string) (*models.ProjectMember, error)

	// List returns members with their profiles, owner first then by join date
	List(ctx context.Context, projectID string) ([]models.ProjectMember, error)

	UpdateRole(ctx context.Context, projectID, userID, role string) (*models.ProjectMember, error)

	Remove(ctx context.Context, projectID, userID string) error

	// MemberIDs returns the subset of userIDs that belong to the project
	MemberIDs(ctx context.Context, projectID string, userIDs []string) ([]string, error)
}
