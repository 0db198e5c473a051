package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	memberRepo  repositories.MemberRepository
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	notifier    services.Notifier
	publisher   services.ChangePublisher
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	memberRepo repositories.MemberRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateProject creates a project and its owner membership in one transaction
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Status == "" {
		req.Status = models.ProjectStatusActive
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, invalid(err)
	}

	now := time.Now()
	project := &models.Project{
		OwnerID:     req.UserID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &models.ProjectMember{UserID: req.UserID, Role: models.ProjectRoleOwner}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return err
		}
		owner.ProjectID = project.ID
		return s.memberRepo.Add(txCtx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableProjects, models.ChangeInsert, project.ID, "", project.ID, project))
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMembers, models.ChangeInsert, project.ID, "", owner.UserID, owner))

	s.logger.Info("project created",
		"id", project.ID,
		"name", project.Name,
		"user_id", req.UserID,
	)

	return project, nil
}

func (s *projectService) validateCreateRequest(req *services.CreateProjectRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxProjectNameLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Status, oneOf(models.ProjectStatuses)),
	)
	if err != nil {
		return err
	}
	return checkDateRange(req.StartDate, req.DueDate)
}

func checkDateRange(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return errors.New("due_date: must not be before start_date")
	}
	return nil
}

// GetProject retrieves a project the user can access
func (s *projectService) GetProject(ctx context.Context, id, userID string) (*models.Project, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects lists the user's projects; admins see every project
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]models.ProjectSummary, error) {
	admin, err := s.authorizer.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.ListForUser(ctx, userID, admin)
}

// UpdateProject applies a partial update
func (s *projectService) UpdateProject(ctx context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	req.Name = trimPtr(req.Name)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, config.MaxProjectNameLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Status, validation.NilOrNotEmpty, oneOf(models.ProjectStatuses)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.authorizer.Require(ctx, userID, id, services.ActionProjectUpdate); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.StartDate.Present {
		project.StartDate = req.StartDate.Value
	}
	if req.DueDate.Present {
		project.DueDate = req.DueDate.Value
	}
	if err := checkDateRange(project.StartDate, project.DueDate); err != nil {
		return nil, invalid(err)
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableProjects, models.ChangeUpdate, project.ID, "", project.ID, project))
	s.logger.Info("project updated", "id", project.ID, "user_id", userID)

	return project, nil
}

// DeleteProject soft-deletes a project
func (s *projectService) DeleteProject(ctx context.Context, id, userID string) (*models.Project, error) {
	if err := s.authorizer.Require(ctx, userID, id, services.ActionProjectDelete); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableProjects, models.ChangeDelete, project.ID, "", project.ID, project))
	s.logger.Info("project deleted", "id", id, "user_id", userID)

	return project, nil
}

// ListMembers lists a project's members with their profiles
func (s *projectService) ListMembers(ctx context.Context, projectID, userID string) ([]models.ProjectMember, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.memberRepo.List(ctx, projectID)
}

// AddMember adds a user to the project with an assignable role
func (s *projectService) AddMember(ctx context.Context, projectID, actorID string, req *services.AddMemberRequest) (*models.ProjectMember, error) {
	if req.Role == "" {
		req.Role = models.ProjectRoleMember
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required, isUUID),
		validation.Field(&req.Role, oneOf(models.AssignableProjectRoles)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.authorizer.Require(ctx, actorID, projectID, services.ActionMemberManage); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{ProjectID: projectID, UserID: req.UserID, Role: req.Role}
	if err := s.memberRepo.Add(ctx, member); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMembers, models.ChangeInsert, projectID, "", member.UserID, member))
	if member.UserID != actorID {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:       member.UserID,
			Type:         models.NotificationMemberAdded,
			Title:        fmt.Sprintf("You were added to %s", project.Name),
			Body:         fmt.Sprintf("Role: %s", member.Role),
			ResourceType: "project",
			ResourceID:   projectID,
			ProjectID:    &projectID,
		})
	}

	s.logger.Info("member added", "project_id", projectID, "user_id", member.UserID, "role", member.Role, "by", actorID)
	return member, nil
}

// UpdateMemberRole changes a member's role; the owner's role is fixed
func (s *projectService) UpdateMemberRole(ctx context.Context, projectID, actorID, memberID, role string) (*models.ProjectMember, error) {
	if err := validation.Validate(role, validation.Required, oneOf(models.AssignableProjectRoles)); err != nil {
		return nil, domain.Validation("role: %v", err)
	}

	if err := s.authorizer.Require(ctx, actorID, projectID, services.ActionMemberManage); err != nil {
		return nil, err
	}

	current, err := s.memberRepo.Get(ctx, projectID, memberID)
	if err != nil {
		return nil, err
	}
	if current.Role == models.ProjectRoleOwner {
		return nil, domain.Validation("the project owner's role cannot be changed")
	}

	member, err := s.memberRepo.UpdateRole(ctx, projectID, memberID, role)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMembers, models.ChangeUpdate, projectID, "", memberID, member))
	s.logger.Info("member role changed", "project_id", projectID, "user_id", memberID, "role", role, "by", actorID)
	return member, nil
}

// RemoveMember removes a member; anyone but the owner may leave on their own
func (s *projectService) RemoveMember(ctx context.Context, projectID, actorID, memberID string) error {
	if actorID == memberID {
		if err := s.authorizer.CanAccessProject(ctx, actorID, projectID); err != nil {
			return err
		}
	} else if err := s.authorizer.Require(ctx, actorID, projectID, services.ActionMemberManage); err != nil {
		return err
	}

	current, err := s.memberRepo.Get(ctx, projectID, memberID)
	if err != nil {
		return err
	}
	if current.Role == models.ProjectRoleOwner {
		return domain.Validation("the project owner cannot be removed")
	}

	if err := s.memberRepo.Remove(ctx, projectID, memberID); err != nil {
		return err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMembers, models.ChangeDelete, projectID, "", memberID, current))
	s.logger.Info("member removed", "project_id", projectID, "user_id", memberID, "by", actorID)
	return nil
}
