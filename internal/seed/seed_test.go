package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

func TestDefaultFixturesAreConsistent(t *testing.T) {
	fx, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, fx.Users)
	assert.NotEmpty(t, fx.Projects)
}

func TestParse_RejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"unknown owner",
			"users: [{id: u1, email: a@x}]\nprojects: [{name: P, owner: b@x}]",
			`unknown user "b@x"`,
		},
		{
			"forward dependency",
			"users: [{id: u1, email: a@x}]\nprojects: [{name: P, owner: a@x, tasks: [{title: A, depends_on: [B]}, {title: B}]}]",
			"must be listed before it",
		},
		{
			"duplicate user",
			"users: [{id: u1, email: a@x}, {id: u2, email: a@x}]",
			"duplicate fixture user",
		},
		{
			"suggestion project",
			"users: [{id: u1, email: a@x}]\nsuggestions: [{author: a@x, title: S, project: Nope}]",
			`unknown project "Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type recordingUsers struct {
	repositories.UserRepository
	upserts []string
	roles   map[string]string
	titles  map[string]string
}

func (r *recordingUsers) Upsert(_ context.Context, u *models.User) error {
	r.upserts = append(r.upserts, u.ID)
	// new profiles always start as members
	u.Role = models.UserRoleMember
	return nil
}

func (r *recordingUsers) UpdateRole(_ context.Context, id, role string) (*models.User, error) {
	r.roles[id] = role
	return &models.User{ID: id, Role: role}, nil
}

func (r *recordingUsers) UpdateProfile(_ context.Context, u *models.User) error {
	r.titles[u.ID] = *u.JobTitle
	return nil
}

type recordingProjects struct {
	services.ProjectService
	members []string
}

func (r *recordingProjects) CreateProject(_ context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	return &models.Project{ID: "project-" + req.Name, OwnerID: req.UserID}, nil
}

func (r *recordingProjects) AddMember(_ context.Context, projectID, _ string, req *services.AddMemberRequest) (*models.ProjectMember, error) {
	r.members = append(r.members, req.UserID+":"+req.Role)
	return &models.ProjectMember{ProjectID: projectID, UserID: req.UserID, Role: req.Role}, nil
}

type recordingTasks struct {
	services.TaskService
	created []*services.CreateTaskRequest
	deps    [][2]string
}

func (r *recordingTasks) CreateTask(_ context.Context, req *services.CreateTaskRequest) (*models.Task, error) {
	r.created = append(r.created, req)
	return &models.Task{ID: fmt.Sprintf("task-%d", len(r.created))}, nil
}

func (r *recordingTasks) AddDependency(_ context.Context, taskID, _, dependsOnID string) (*models.TaskDependency, error) {
	r.deps = append(r.deps, [2]string{taskID, dependsOnID})
	return &models.TaskDependency{TaskID: taskID, DependsOnID: dependsOnID}, nil
}

type recordingMessages struct {
	services.MessageService
	sent []*services.SendMessageRequest
}

func (r *recordingMessages) SendMessage(_ context.Context, req *services.SendMessageRequest) (*models.Message, error) {
	r.sent = append(r.sent, req)
	return &models.Message{}, nil
}

type recordingTodos struct {
	services.TodoService
	owners []string
}

func (r *recordingTodos) CreateTodo(_ context.Context, req *services.CreateTodoRequest) (*models.PersonalTodo, error) {
	r.owners = append(r.owners, req.UserID)
	return &models.PersonalTodo{}, nil
}

type recordingSuggestions struct {
	services.SuggestionService
	created []*services.CreateSuggestionRequest
}

func (r *recordingSuggestions) CreateSuggestion(_ context.Context, req *services.CreateSuggestionRequest) (*models.Suggestion, error) {
	r.created = append(r.created, req)
	return &models.Suggestion{}, nil
}

const fixtureYAML = `
users:
  - {id: u-ana, email: ana@x, full_name: Ana, role: admin, job_title: Lead, todos: [one, two]}
  - {id: u-ben, email: ben@x, full_name: Ben}
projects:
  - name: Apollo
    owner: ana@x
    due_in_days: 3
    members: [{email: ben@x, role: manager}]
    tasks:
      - {title: Design, status: done}
      - {title: Build, assignee: ben@x, depends_on: [Design], due_in_days: -1}
    messages:
      - {from: ben@x, content: hello, mentions: [ana@x]}
suggestions:
  - {author: ben@x, title: Fewer meetings, project: Apollo}
`

func TestSeeder_Run(t *testing.T) {
	fx, err := Parse([]byte(fixtureYAML))
	require.NoError(t, err)

	users := &recordingUsers{roles: map[string]string{}, titles: map[string]string{}}
	projects := &recordingProjects{}
	tasks := &recordingTasks{}
	messages := &recordingMessages{}
	todos := &recordingTodos{}
	suggestions := &recordingSuggestions{}

	s := NewSeeder(Services{
		Users: users, Projects: projects, Tasks: tasks,
		Messages: messages, Todos: todos, Suggestions: suggestions,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Ben's account was created in the auth service with a different id
	sum, err := s.Run(context.Background(), fx, map[string]string{"ben@x": "auth-ben"})
	require.NoError(t, err)

	assert.Equal(t, &Summary{Users: 2, Projects: 1, Members: 1, Tasks: 2, Dependencies: 1, Messages: 1, Todos: 2, Suggestions: 1}, sum)
	assert.Equal(t, []string{"u-ana", "auth-ben"}, users.upserts)
	assert.Equal(t, map[string]string{"u-ana": models.UserRoleAdmin}, users.roles)
	assert.Equal(t, "Lead", users.titles["u-ana"])

	assert.Equal(t, []string{"auth-ben:manager"}, projects.members)

	require.Len(t, tasks.created, 2)
	require.NotNil(t, tasks.created[1].AssigneeID)
	assert.Equal(t, "auth-ben", *tasks.created[1].AssigneeID)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), *tasks.created[1].DueDate)
	assert.Equal(t, [][2]string{{"task-2", "task-1"}}, tasks.deps)

	require.Len(t, messages.sent, 1)
	assert.Equal(t, "auth-ben", messages.sent[0].UserID)
	assert.Equal(t, []string{"u-ana"}, messages.sent[0].MentionIDs)

	assert.Equal(t, []string{"u-ana", "u-ana"}, todos.owners)
	require.Len(t, suggestions.created, 1)
	assert.Equal(t, "project-Apollo", *suggestions.created[0].ProjectID)
}
