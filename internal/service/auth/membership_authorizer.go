package auth

import (
	"context"
	"errors"
	"fmt"

	"teamhub/internal/domain"
	"teamhub/internal/domain/repositories"
)

// RolePolicy answers whether a project role grants an action
type RolePolicy interface {
	Allows(role, action string) bool
}

// MembershipAuthorizer implements ResourceAuthorizer using project memberships.
// A user can access a project they are a member of; what they may do there is
// decided by their role through the policy. Global admins pass every check.
type MembershipAuthorizer struct {
	projectRepo repositories.ProjectRepository
	memberRepo  repositories.MemberRepository
	userRepo    repositories.UserRepository
	policy      RolePolicy
}

// NewMembershipAuthorizer creates a new membership-based authorizer
func NewMembershipAuthorizer(
	projectRepo repositories.ProjectRepository,
	memberRepo repositories.MemberRepository,
	userRepo repositories.UserRepository,
	policy RolePolicy,
) *MembershipAuthorizer {
	return &MembershipAuthorizer{
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		policy:      policy,
	}
}

// IsAdmin reports whether the user holds the global admin role
func (a *MembershipAuthorizer) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load user for auth: %w", err)
	}
	return user.IsAdmin(), nil
}

// CanAccessProject checks the user is a member (or admin) of a live project
func (a *MembershipAuthorizer) CanAccessProject(ctx context.Context, userID, projectID string) error {
	_, err := a.role(ctx, userID, projectID)
	return err
}

// Require checks the user's role on the project grants action
func (a *MembershipAuthorizer) Require(ctx context.Context, userID, projectID, action string) error {
	role, err := a.role(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if role == "" || a.policy.Allows(role, action) {
		return nil
	}
	return fmt.Errorf("%s requires %s on project %s: %w", role, action, projectID, domain.ErrForbidden)
}

// role resolves the caller's project role. Admins who are not members get "" (allow all).
func (a *MembershipAuthorizer) role(ctx context.Context, userID, projectID string) (string, error) {
	member, err := a.memberRepo.Get(ctx, projectID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("check project access: %w", err)
	}

	var role string
	if member != nil {
		role = member.Role
	}
	// Admins act with full rights even where they hold a lesser membership
	admin, err := a.IsAdmin(ctx, userID)
	if err != nil {
		return "", err
	}
	if admin {
		role = ""
	} else if member == nil {
		return "", fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
	}

	// Membership rows outlive a soft delete; the project itself must still exist
	if _, err := a.projectRepo.GetByID(ctx, projectID); err != nil {
		return "", err
	}
	return role, nil
}
