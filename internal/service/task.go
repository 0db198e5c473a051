package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/config"
	"teamhub/internal/depgraph"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
	"teamhub/internal/ordering"
)

// taskService implements the TaskService interface
type taskService struct {
	taskRepo   repositories.TaskRepository
	depRepo    repositories.DependencyRepository
	memberRepo repositories.MemberRepository
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	notifier   services.Notifier
	publisher  services.ChangePublisher
	logger     *slog.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo repositories.TaskRepository,
	depRepo repositories.DependencyRepository,
	memberRepo repositories.MemberRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		depRepo:    depRepo,
		memberRepo: memberRepo,
		txManager:  txManager,
		authorizer: authorizer,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateTask appends a new task to the end of its status column
func (s *taskService) CreateTask(ctx context.Context, req *services.CreateTaskRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Status == "" {
		req.Status = models.TaskStatusTodo
	}
	if req.Priority == "" {
		req.Priority = models.TaskPriorityMedium
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required, isUUID),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTaskTitleLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Status, oneOf(models.TaskStatuses)),
		validation.Field(&req.Priority, oneOf(models.TaskPriorities)),
		validation.Field(&req.AssigneeID, isUUID),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.authorizer.Require(ctx, req.UserID, req.ProjectID, services.ActionTaskCreate); err != nil {
		return nil, err
	}
	if req.AssigneeID != nil && *req.AssigneeID != req.UserID {
		if err := s.authorizer.Require(ctx, req.UserID, req.ProjectID, services.ActionTaskAssign); err != nil {
			return nil, err
		}
	}
	if err := s.requireMember(ctx, req.ProjectID, req.AssigneeID); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   req.UserID,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.IsDone() {
		task.CompletedAt = &now
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.LockColumn(txCtx, task.ProjectID, task.Status); err != nil {
			return err
		}
		return s.taskRepo.Create(txCtx, task)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableTasks, models.ChangeInsert, task.ProjectID, "", task.ID, task))
	if task.AssigneeID != nil && *task.AssigneeID != req.UserID {
		s.notifyAssigned(ctx, task)
	}

	s.logger.Info("task created",
		"id", task.ID,
		"project_id", task.ProjectID,
		"status", task.Status,
		"position", task.Position,
		"user_id", req.UserID,
	)

	return task, nil
}

// requireMember checks that an assignee belongs to the project
func (s *taskService) requireMember(ctx context.Context, projectID string, userID *string) error {
	if userID == nil {
		return nil
	}
	ids, err := s.memberRepo.MemberIDs(ctx, projectID, []string{*userID})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return domain.Validation("assignee_id: %s is not a member of the project", *userID)
	}
	return nil
}

// GetTask retrieves a task from a project the user can access
func (s *taskService) GetTask(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessProject(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks lists one project's tasks
func (s *taskService) ListTasks(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	err := validation.ValidateStruct(&filter,
		validation.Field(&filter.ProjectID, validation.Required, isUUID),
		validation.Field(&filter.AssigneeID, isUUID),
		validation.Field(&filter.Status, oneOf(models.TaskStatuses)),
		validation.Field(&filter.Priority, oneOf(models.TaskPriorities)),
		validation.Field(&filter.Search, validation.Length(0, 200)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.authorizer.CanAccessProject(ctx, userID, filter.ProjectID); err != nil {
		return nil, err
	}
	return s.taskRepo.List(ctx, filter)
}

// ListMyTasks lists tasks assigned to the user in any live project
func (s *taskService) ListMyTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.taskRepo.List(ctx, models.TaskFilter{AssigneeID: userID, ActiveOnly: true})
}

// UpdateTask applies a partial update. A status change moves the task to the end of its new column.
func (s *taskService) UpdateTask(ctx context.Context, id, userID string, req *services.UpdateTaskRequest) (*models.Task, error) {
	req.Title = trimPtr(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxTaskTitleLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Status, validation.NilOrNotEmpty, oneOf(models.TaskStatuses)),
		validation.Field(&req.Priority, validation.NilOrNotEmpty, oneOf(models.TaskPriorities)),
	)
	if err != nil {
		return nil, invalid(err)
	}
	if err := validation.Validate(req.AssigneeID.Value, isUUID); err != nil {
		return nil, domain.Validation("assignee_id: %v", err)
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskUpdate); err != nil {
		return nil, err
	}

	previousStatus := task.Status
	assigneeChanged := req.AssigneeID.Present && !sameID(task.AssigneeID, req.AssigneeID.Value)
	if assigneeChanged {
		if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskAssign); err != nil {
			return nil, err
		}
		if err := s.requireMember(ctx, task.ProjectID, req.AssigneeID.Value); err != nil {
			return nil, err
		}
		task.AssigneeID = req.AssigneeID.Value
		task.Assignee = nil
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate.Present {
		task.DueDate = req.DueDate.Value
	}

	now := time.Now()
	if req.Status != nil && *req.Status != previousStatus {
		task.Status = *req.Status
		applyCompletion(task, now)
	}
	task.UpdatedAt = now

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.Update(txCtx, task); err != nil {
			return err
		}
		if task.Status == previousStatus {
			return nil
		}
		return s.relocate(txCtx, task, previousStatus, -1)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableTasks, models.ChangeUpdate, task.ProjectID, "", task.ID, task))
	if assigneeChanged && task.AssigneeID != nil && *task.AssigneeID != userID {
		s.notifyAssigned(ctx, task)
	} else if task.Status != previousStatus {
		s.notifyStatus(ctx, task, userID)
	}

	s.logger.Info("task updated", "id", task.ID, "project_id", task.ProjectID, "user_id", userID)
	return task, nil
}

// applyCompletion keeps completed_at in step with the done column
func applyCompletion(task *models.Task, now time.Time) {
	if task.IsDone() {
		if task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		return
	}
	task.CompletedAt = nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DeleteTask removes a task, its dependency edges, and closes the gap in its column
func (s *taskService) DeleteTask(ctx context.Context, id, userID string) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskDelete); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.depRepo.DeleteForTask(txCtx, id); err != nil {
			return err
		}
		if err := s.taskRepo.Delete(txCtx, id); err != nil {
			return err
		}
		column, err := s.taskRepo.ColumnIDs(txCtx, task.ProjectID, task.Status)
		if err != nil {
			return err
		}
		return s.taskRepo.SetPositions(txCtx, positions(column, task.Status))
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableTasks, models.ChangeDelete, task.ProjectID, "", task.ID, task))
	s.logger.Info("task deleted", "id", id, "project_id", task.ProjectID, "user_id", userID)
	return nil
}

// MoveTask drops a task into a column at an index and renumbers both columns
func (s *taskService) MoveTask(ctx context.Context, id, userID string, req *services.MoveTaskRequest) (*models.Task, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Status, validation.Required, oneOf(models.TaskStatuses)),
		validation.Field(&req.Index, validation.Min(0)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskUpdate); err != nil {
		return nil, err
	}

	previousStatus := task.Status
	now := time.Now()
	task.Status = req.Status
	applyCompletion(task, now)
	task.UpdatedAt = now

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if previousStatus != task.Status {
			if err := s.taskRepo.Update(txCtx, task); err != nil {
				return err
			}
		}
		return s.relocate(txCtx, task, previousStatus, req.Index)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableTasks, models.ChangeUpdate, task.ProjectID, "", task.ID, task))
	if previousStatus != task.Status {
		s.notifyStatus(ctx, task, userID)
	}

	s.logger.Info("task moved",
		"id", task.ID,
		"from", previousStatus,
		"to", task.Status,
		"position", task.Position,
		"user_id", userID,
	)
	return task, nil
}

// relocate places task at index of its current column (-1 appends) and renumbers the
// column it left. Column rows are locked by ColumnIDs for the rest of the transaction.
func (s *taskService) relocate(ctx context.Context, task *models.Task, fromStatus string, index int) error {
	// Fixed lock order across columns avoids deadlocking against a move the other way
	columns := []string{fromStatus, task.Status}
	sort.Strings(columns)
	for i, status := range columns {
		if i > 0 && status == columns[i-1] {
			continue
		}
		if err := s.taskRepo.LockColumn(ctx, task.ProjectID, status); err != nil {
			return err
		}
	}

	target, err := s.taskRepo.ColumnIDs(ctx, task.ProjectID, task.Status)
	if err != nil {
		return err
	}
	target, _ = ordering.Remove(target, task.ID)
	if index < 0 {
		index = len(target)
	}
	target = ordering.Insert(target, task.ID, index)

	updates := positions(target, task.Status)
	if fromStatus != task.Status {
		source, err := s.taskRepo.ColumnIDs(ctx, task.ProjectID, fromStatus)
		if err != nil {
			return err
		}
		source, _ = ordering.Remove(source, task.ID)
		updates = append(updates, positions(source, fromStatus)...)
	}

	for _, p := range updates {
		if p.ID == task.ID {
			task.Position = p.Position
		}
	}
	return s.taskRepo.SetPositions(ctx, updates)
}

// positions numbers a column 0..n-1
func positions(ids []string, status string) []models.TaskPosition {
	out := make([]models.TaskPosition, len(ids))
	for i, id := range ids {
		out[i] = models.TaskPosition{ID: id, Status: status, Position: i}
	}
	return out
}

func (s *taskService) notifyAssigned(ctx context.Context, task *models.Task) {
	projectID := task.ProjectID
	s.notifier.Notify(ctx, &models.Notification{
		UserID:       *task.AssigneeID,
		Type:         models.NotificationTaskAssigned,
		Title:        "You were assigned a task",
		Body:         task.Title,
		ResourceType: "task",
		ResourceID:   task.ID,
		ProjectID:    &projectID,
	})
}

func (s *taskService) notifyStatus(ctx context.Context, task *models.Task, actorID string) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	projectID := task.ProjectID
	s.notifier.Notify(ctx, &models.Notification{
		UserID:       *task.AssigneeID,
		Type:         models.NotificationTaskStatus,
		Title:        fmt.Sprintf("Task moved to %s", strings.ReplaceAll(task.Status, "_", " ")),
		Body:         task.Title,
		ResourceType: "task",
		ResourceID:   task.ID,
		ProjectID:    &projectID,
	})
}

// AddDependency records that taskID depends on dependsOnID
func (s *taskService) AddDependency(ctx context.Context, taskID, userID, dependsOnID string) (*models.TaskDependency, error) {
	if err := validation.Validate(dependsOnID, validation.Required, isUUID); err != nil {
		return nil, domain.Validation("depends_on_id: %v", err)
	}
	if taskID == dependsOnID {
		return nil, domain.Validation("a task cannot depend on itself")
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskUpdate); err != nil {
		return nil, err
	}

	prereq, err := s.taskRepo.GetByID(ctx, dependsOnID)
	if err != nil {
		return nil, err
	}
	if prereq.ProjectID != task.ProjectID {
		return nil, domain.Validation("dependencies must stay within one project")
	}

	dep := &models.TaskDependency{ProjectID: task.ProjectID, TaskID: taskID, DependsOnID: dependsOnID}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.depRepo.LockGraph(txCtx, task.ProjectID); err != nil {
			return err
		}
		existing, err := s.depRepo.ListByProject(txCtx, task.ProjectID)
		if err != nil {
			return err
		}
		for _, d := range existing {
			if d.TaskID == taskID && d.DependsOnID == dependsOnID {
				return &domain.ConflictError{
					Message:      "dependency already exists",
					ResourceType: "dependency",
					ResourceID:   d.ID,
				}
			}
		}
		if depgraph.WouldCreateCycle(existing, taskID, dependsOnID) {
			return domain.Validation("dependency would create a cycle")
		}
		return s.depRepo.Create(txCtx, dep)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableDependencies, models.ChangeInsert, dep.ProjectID, "", dep.ID, dep))
	s.logger.Info("dependency added", "task_id", taskID, "depends_on_id", dependsOnID, "user_id", userID)
	return dep, nil
}

// RemoveDependency deletes one edge
func (s *taskService) RemoveDependency(ctx context.Context, taskID, userID, dependsOnID string) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.authorizer.Require(ctx, userID, task.ProjectID, services.ActionTaskUpdate); err != nil {
		return err
	}

	if err := s.depRepo.Delete(ctx, taskID, dependsOnID); err != nil {
		return err
	}

	dep := models.TaskDependency{ProjectID: task.ProjectID, TaskID: taskID, DependsOnID: dependsOnID}
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableDependencies, models.ChangeDelete, task.ProjectID, "", taskID+":"+dependsOnID, dep))
	s.logger.Info("dependency removed", "task_id", taskID, "depends_on_id", dependsOnID, "user_id", userID)
	return nil
}

// GetDependencyGraph lays out the project's dependency graph
func (s *taskService) GetDependencyGraph(ctx context.Context, projectID, userID string) (*models.DependencyGraph, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, models.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	deps, err := s.depRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	graph, err := depgraph.Build(projectID, tasks, deps)
	if errors.Is(err, depgraph.ErrCycle) {
		s.logger.Warn("stored dependency cycle", "project_id", projectID)
		return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return graph, err
}
