package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// Services are the write paths the seeder goes through
type Services struct {
	Users       repositories.UserRepository
	Projects    services.ProjectService
	Tasks       services.TaskService
	Messages    services.MessageService
	Todos       services.TodoService
	Suggestions services.SuggestionService
}

// Summary counts what a run created
type Summary struct {
	Users        int
	Projects     int
	Members      int
	Tasks        int
	Dependencies int
	Messages     int
	Todos        int
	Suggestions  int
}

// Seeder applies fixtures
type Seeder struct {
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

func NewSeeder(svc Services, logger *slog.Logger) *Seeder {
	return &Seeder{svc: svc, logger: logger, now: time.Now}
}

// Run applies fx in dependency order: users, projects with their members,
// tasks and chat, then to-dos and suggestions. ids maps fixture emails to
// account ids created in the auth service; missing entries use the fixture id.
func (s *Seeder) Run(ctx context.Context, fx *Fixtures, ids map[string]string) (*Summary, error) {
	sum := &Summary{}

	userIDs := make(map[string]string, len(fx.Users))
	for _, u := range fx.Users {
		id := u.ID
		if override, ok := ids[u.Email]; ok {
			id = override
		}
		userIDs[u.Email] = id

		if err := s.seedUser(ctx, id, u); err != nil {
			return sum, err
		}
		sum.Users++
	}

	projectIDs := make(map[string]string, len(fx.Projects))
	for _, p := range fx.Projects {
		projectID, err := s.seedProject(ctx, p, userIDs, sum)
		if err != nil {
			return sum, fmt.Errorf("project %q: %w", p.Name, err)
		}
		projectIDs[p.Name] = projectID
	}

	for _, u := range fx.Users {
		for _, title := range u.Todos {
			if _, err := s.svc.Todos.CreateTodo(ctx, &services.CreateTodoRequest{UserID: userIDs[u.Email], Title: title}); err != nil {
				return sum, fmt.Errorf("todo %q: %w", title, err)
			}
			sum.Todos++
		}
	}

	for _, sg := range fx.Suggestions {
		req := &services.CreateSuggestionRequest{
			UserID:   userIDs[sg.Author],
			Title:    sg.Title,
			Body:     sg.Body,
			Category: sg.Category,
		}
		if sg.Project != "" {
			pid := projectIDs[sg.Project]
			req.ProjectID = &pid
		}
		if _, err := s.svc.Suggestions.CreateSuggestion(ctx, req); err != nil {
			return sum, fmt.Errorf("suggestion %q: %w", sg.Title, err)
		}
		sum.Suggestions++
	}

	return sum, nil
}

func (s *Seeder) seedUser(ctx context.Context, id string, u UserFixture) error {
	user := &models.User{ID: id, Email: u.Email, FullName: u.FullName, Role: u.Role}
	if err := s.svc.Users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.Email, err)
	}

	// Upsert keeps the stored role of an existing profile
	if u.Role != "" && user.Role != u.Role {
		if _, err := s.svc.Users.UpdateRole(ctx, id, u.Role); err != nil {
			return fmt.Errorf("set role for %s: %w", u.Email, err)
		}
	}

	if u.JobTitle != "" {
		title := u.JobTitle
		user.JobTitle = &title
		user.UpdatedAt = s.now().UTC()
		if err := s.svc.Users.UpdateProfile(ctx, user); err != nil {
			return fmt.Errorf("set job title for %s: %w", u.Email, err)
		}
	}

	s.logger.Debug("seeded user", "email", u.Email, "id", id)
	return nil
}

func (s *Seeder) seedProject(ctx context.Context, p ProjectFixture, userIDs map[string]string, sum *Summary) (string, error) {
	ownerID := userIDs[p.Owner]
	project, err := s.svc.Projects.CreateProject(ctx, &services.CreateProjectRequest{
		UserID:      ownerID,
		Name:        p.Name,
		Description: p.Description,
		DueDate:     s.daysFromNow(p.DueInDays),
	})
	if err != nil {
		return "", err
	}
	sum.Projects++

	for _, m := range p.Members {
		if _, err := s.svc.Projects.AddMember(ctx, project.ID, ownerID, &services.AddMemberRequest{
			UserID: userIDs[m.Email],
			Role:   m.Role,
		}); err != nil {
			return "", fmt.Errorf("member %s: %w", m.Email, err)
		}
		sum.Members++
	}

	taskIDs := make(map[string]string, len(p.Tasks))
	for _, t := range p.Tasks {
		req := &services.CreateTaskRequest{
			ProjectID:   project.ID,
			UserID:      ownerID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     s.daysFromNow(t.DueInDays),
		}
		if t.Assignee != "" {
			assignee := userIDs[t.Assignee]
			req.AssigneeID = &assignee
		}

		task, err := s.svc.Tasks.CreateTask(ctx, req)
		if err != nil {
			return "", fmt.Errorf("task %q: %w", t.Title, err)
		}
		taskIDs[t.Title] = task.ID
		sum.Tasks++

		for _, dep := range t.DependsOn {
			if _, err := s.svc.Tasks.AddDependency(ctx, task.ID, ownerID, taskIDs[dep]); err != nil {
				return "", fmt.Errorf("dependency %q -> %q: %w", t.Title, dep, err)
			}
			sum.Dependencies++
		}
	}

	for _, m := range p.Messages {
		mentions := make([]string, 0, len(m.Mentions))
		for _, email := range m.Mentions {
			mentions = append(mentions, userIDs[email])
		}
		if _, err := s.svc.Messages.SendMessage(ctx, &services.SendMessageRequest{
			ProjectID:  project.ID,
			UserID:     userIDs[m.From],
			Content:    m.Content,
			MentionIDs: mentions,
		}); err != nil {
			return "", fmt.Errorf("message from %s: %w", m.From, err)
		}
		sum.Messages++
	}

	s.logger.Info("seeded project", "name", p.Name, "id", project.ID, "tasks", len(p.Tasks))
	return project.ID, nil
}

func (s *Seeder) daysFromNow(days *int) *time.Time {
	if days == nil {
		return nil
	}
	t := s.now().UTC().AddDate(0, 0, *days).Truncate(24 * time.Hour)
	return &t
}
