package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
	"teamhub/internal/ordering"
)

// todoService implements the TodoService interface
type todoService struct {
	todoRepo  repositories.TodoRepository
	txManager repositories.TransactionManager
	publisher services.ChangePublisher
	logger    *slog.Logger
}

// NewTodoService creates a new personal to-do service
func NewTodoService(
	todoRepo repositories.TodoRepository,
	txManager repositories.TransactionManager,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.TodoService {
	return &todoService{
		todoRepo:  todoRepo,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *todoService) ListTodos(ctx context.Context, userID string) ([]models.PersonalTodo, error) {
	return s.todoRepo.List(ctx, userID)
}

// CreateTodo appends a to-do to the end of the user's list
func (s *todoService) CreateTodo(ctx context.Context, req *services.CreateTodoRequest) (*models.PersonalTodo, error) {
	req.Title = strings.TrimSpace(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTaskTitleLength)),
		validation.Field(&req.Notes, validation.Length(0, config.MaxDescriptionLength)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	now := time.Now()
	todo := &models.PersonalTodo{
		UserID:    req.UserID,
		Title:     req.Title,
		Notes:     strings.TrimSpace(req.Notes),
		DueDate:   req.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeInsert, todo)
	s.logger.Info("todo created", "id", todo.ID, "user_id", req.UserID, "position", todo.Position)
	return todo, nil
}

// UpdateTodo applies a partial update; toggling completed stamps completed_at
func (s *todoService) UpdateTodo(ctx context.Context, id, userID string, req *services.UpdateTodoRequest) (*models.PersonalTodo, error) {
	req.Title = trimPtr(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxTaskTitleLength)),
		validation.Field(&req.Notes, validation.Length(0, config.MaxDescriptionLength)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	todo, err := s.todoRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Notes != nil {
		todo.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.DueDate.Present {
		todo.DueDate = req.DueDate.Value
	}
	if req.Completed != nil && *req.Completed != todo.Completed {
		todo.Completed = *req.Completed
		if todo.Completed {
			todo.CompletedAt = &now
		} else {
			todo.CompletedAt = nil
		}
	}
	todo.UpdatedAt = now

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeUpdate, todo)
	s.logger.Info("todo updated", "id", id, "user_id", userID)
	return todo, nil
}

// DeleteTodo removes a to-do and closes the gap it leaves
func (s *todoService) DeleteTodo(ctx context.Context, id, userID string) error {
	todo, err := s.todoRepo.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.todoRepo.Delete(txCtx, id, userID); err != nil {
			return err
		}
		rest, err := s.todoRepo.List(txCtx, userID)
		if err != nil {
			return err
		}
		return s.todoRepo.SetPositions(txCtx, userID, todoIDs(rest))
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.ChangeDelete, todo)
	s.logger.Info("todo deleted", "id", id, "user_id", userID)
	return nil
}

// MoveTodo relocates a to-do and returns the renumbered list
func (s *todoService) MoveTodo(ctx context.Context, id, userID string, index int) ([]models.PersonalTodo, error) {
	if err := validation.Validate(index, validation.Min(0)); err != nil {
		return nil, invalid(err)
	}

	var todos []models.PersonalTodo
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		current, err := s.todoRepo.List(txCtx, userID)
		if err != nil {
			return err
		}
		ids, err := ordering.Move(todoIDs(current), id, index)
		if errors.Is(err, ordering.ErrNotInList) {
			return domain.NotFound("todo", id)
		}
		if err != nil {
			return err
		}
		if err := s.todoRepo.SetPositions(txCtx, userID, ids); err != nil {
			return err
		}
		todos = reorderTodos(current, ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range todos {
		if todos[i].ID == id {
			s.publish(ctx, models.ChangeUpdate, &todos[i])
		}
	}
	s.logger.Info("todo moved", "id", id, "user_id", userID, "index", index)
	return todos, nil
}

func (s *todoService) publish(ctx context.Context, action string, todo *models.PersonalTodo) {
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableTodos, action, "", todo.UserID, todo.ID, todo))
}

func todoIDs(todos []models.PersonalTodo) []string {
	ids := make([]string, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	return ids
}

// reorderTodos arranges todos in ids order with positions renumbered
func reorderTodos(todos []models.PersonalTodo, ids []string) []models.PersonalTodo {
	byID := make(map[string]models.PersonalTodo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}
	out := make([]models.PersonalTodo, 0, len(ids))
	for i, id := range ids {
		t := byID[id]
		t.Position = i
		out = append(out, t)
	}
	return out
}
