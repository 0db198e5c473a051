package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
	"teamhub/internal/permissions"
)

// Stubs embed the service interface; calling an unstubbed method panics.

type stubProjects struct {
	services.ProjectService
	createErr error
	existing  *models.Project
	fetchedID string
}

func (s *stubProjects) CreateProject(_ context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Project{ID: projectID, Name: req.Name, OwnerID: req.UserID}, nil
}

func (s *stubProjects) GetProject(_ context.Context, id, _ string) (*models.Project, error) {
	s.fetchedID = id
	if s.existing == nil {
		return nil, domain.NotFound("project", id)
	}
	return s.existing, nil
}

func TestProjectHandler_CreateProject(t *testing.T) {
	svc := &stubProjects{}
	h := NewProjectHandler(svc, testLogger())

	w := serve(t, "POST /api/projects", h.CreateProject, http.MethodPost, "/api/projects", `{"name":"Apollo"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Project
	decodeBody(t, w, &got)
	assert.Equal(t, "Apollo", got.Name)
	assert.Equal(t, callerID, got.OwnerID, "owner comes from the token, not the body")
}

func TestProjectHandler_CreateProjectConflictReturnsExisting(t *testing.T) {
	existingID := "4c1f7a7e-3c8b-4d07-9a55-0000000000ff"
	svc := &stubProjects{
		createErr: &domain.ConflictError{Message: "project 'Apollo' already exists", ResourceType: "project", ResourceID: existingID},
		existing:  &models.Project{ID: existingID, Name: "Apollo"},
	}
	h := NewProjectHandler(svc, testLogger())

	w := serve(t, "POST /api/projects", h.CreateProject, http.MethodPost, "/api/projects", `{"name":"Apollo"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, existingID, svc.fetchedID)

	var got models.Project
	decodeBody(t, w, &got)
	assert.Equal(t, existingID, got.ID)
}

type stubTasks struct {
	services.TaskService
	update *services.UpdateTaskRequest
	move   *services.MoveTaskRequest
	filter models.TaskFilter
}

func (s *stubTasks) UpdateTask(_ context.Context, id, _ string, req *services.UpdateTaskRequest) (*models.Task, error) {
	s.update = req
	return &models.Task{ID: id}, nil
}

func (s *stubTasks) MoveTask(_ context.Context, id, _ string, req *services.MoveTaskRequest) (*models.Task, error) {
	s.move = req
	return &models.Task{ID: id, Status: req.Status}, nil
}

func (s *stubTasks) ListTasks(_ context.Context, _ string, filter models.TaskFilter) ([]models.Task, error) {
	s.filter = filter
	return []models.Task{}, nil
}

func TestTaskHandler_UpdateTaskTriState(t *testing.T) {
	svc := &stubTasks{}
	h := NewTaskHandler(svc, testLogger())

	w := serve(t, "PATCH /api/tasks/{id}", h.UpdateTask, http.MethodPatch, "/api/tasks/"+taskID,
		`{"title":"Ship it","assignee_id":null}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.update)
	assert.Equal(t, "Ship it", *svc.update.Title)
	assert.True(t, svc.update.AssigneeID.Present, "null clears the assignee")
	assert.Nil(t, svc.update.AssigneeID.Value)
	assert.False(t, svc.update.DueDate.Present, "absent due_date is left alone")
}

func TestTaskHandler_MoveAndFilter(t *testing.T) {
	svc := &stubTasks{}
	h := NewTaskHandler(svc, testLogger())

	w := serve(t, "POST /api/tasks/{id}/move", h.MoveTask, http.MethodPost, "/api/tasks/"+taskID+"/move",
		`{"status":"done","index":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, &services.MoveTaskRequest{Status: "done", Index: 2}, svc.move)

	w = serve(t, "GET /api/projects/{id}/tasks", h.ListTasks, http.MethodGet,
		"/api/projects/"+projectID+"/tasks?status=todo&priority=high&q=login&overdue=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TaskFilter{ProjectID: projectID, Status: "todo", Priority: "high", Search: "login", OverdueOnly: true}, svc.filter)

	w = serve(t, "GET /api/projects/{id}/tasks", h.ListTasks, http.MethodGet,
		"/api/projects/"+projectID+"/tasks?overdue=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubMessages struct {
	services.MessageService
	before *models.MessageCursor
	limit  int
	sent   *services.SendMessageRequest
	err    error
}

func (s *stubMessages) ListMessages(_ context.Context, _, _ string, before *models.MessageCursor, limit int) ([]models.Message, error) {
	s.before, s.limit = before, limit
	return []models.Message{}, s.err
}

func (s *stubMessages) SendMessage(_ context.Context, req *services.SendMessageRequest) (*models.Message, error) {
	s.sent = req
	return &models.Message{ProjectID: req.ProjectID, SenderID: req.UserID, Content: req.Content}, s.err
}

func TestMessageHandler_ListPaging(t *testing.T) {
	svc := &stubMessages{}
	h := NewMessageHandler(svc, testLogger())
	pattern := "GET /api/projects/{id}/messages"

	w := serve(t, pattern, h.ListMessages, http.MethodGet, "/api/projects/"+projectID+"/messages?before=2026-03-01T09:00:00Z&limit=25", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.before)
	assert.True(t, svc.before.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	assert.Empty(t, svc.before.ID)
	assert.Equal(t, 25, svc.limit)

	w = serve(t, pattern, h.ListMessages, http.MethodGet, "/api/projects/"+projectID+"/messages?before=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_ListKeysetCursor(t *testing.T) {
	pattern := "GET /api/projects/{id}/messages"
	base := "/api/projects/" + projectID + "/messages"

	t.Run("before_id narrows the cursor", func(t *testing.T) {
		svc := &stubMessages{}
		h := NewMessageHandler(svc, testLogger())
		w := serve(t, pattern, h.ListMessages, http.MethodGet, base+"?before=2026-03-01T09:00:00Z&before_id="+strings.ToUpper(taskID), "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.before)
		assert.Equal(t, taskID, svc.before.ID)
	})

	t.Run("before_id alone", func(t *testing.T) {
		svc := &stubMessages{}
		h := NewMessageHandler(svc, testLogger())
		w := serve(t, pattern, h.ListMessages, http.MethodGet, base+"?before_id="+taskID, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.before)
	})

	t.Run("malformed before_id", func(t *testing.T) {
		svc := &stubMessages{}
		h := NewMessageHandler(svc, testLogger())
		w := serve(t, pattern, h.ListMessages, http.MethodGet, base+"?before=2026-03-01T09:00:00Z&before_id=nope", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMessageHandler_SendUsesCallerAndPath(t *testing.T) {
	svc := &stubMessages{}
	h := NewMessageHandler(svc, testLogger())

	w := serve(t, "POST /api/projects/{id}/messages", h.SendMessage, http.MethodPost,
		"/api/projects/"+projectID+"/messages", `{"content":"hi @bob","mention_ids":["`+taskID+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, projectID, svc.sent.ProjectID)
	assert.Equal(t, callerID, svc.sent.UserID)
	assert.Equal(t, []string{taskID}, svc.sent.MentionIDs)
}

func TestMessageHandler_ServiceErrors(t *testing.T) {
	svc := &stubMessages{err: domain.Forbidden("viewers cannot post")}
	h := NewMessageHandler(svc, testLogger())

	w := serve(t, "POST /api/projects/{id}/messages", h.SendMessage, http.MethodPost,
		"/api/projects/"+projectID+"/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type stubMeetings struct {
	services.MeetingService
	from, to time.Time
}

func (s *stubMeetings) ListMeetings(_ context.Context, _ string, from, to time.Time) ([]models.Meeting, error) {
	s.from, s.to = from, to
	return []models.Meeting{}, nil
}

func TestMeetingHandler_DefaultWindow(t *testing.T) {
	svc := &stubMeetings{}
	h := NewMeetingHandler(svc, testLogger())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	w := serve(t, "GET /api/meetings", h.ListMeetings, http.MethodGet, "/api/meetings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, now, svc.from)
	assert.Equal(t, now.Add(30*24*time.Hour), svc.to)

	w = serve(t, "GET /api/meetings", h.ListMeetings, http.MethodGet, "/api/meetings?from=2026-04-01T00:00:00Z&to=2026-04-02T00:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24*time.Hour, svc.to.Sub(svc.from))
}

type stubTodos struct {
	services.TodoService
	index int
}

func (s *stubTodos) MoveTodo(_ context.Context, _, _ string, index int) ([]models.PersonalTodo, error) {
	s.index = index
	return []models.PersonalTodo{{Title: "a"}, {Title: "b"}}, nil
}

func TestTodoHandler_MoveReturnsList(t *testing.T) {
	svc := &stubTodos{}
	h := NewTodoHandler(svc, testLogger())

	w := serve(t, "POST /api/todos/{id}/move", h.MoveTodo, http.MethodPost, "/api/todos/"+taskID+"/move", `{"index":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.index)

	var got []models.PersonalTodo
	decodeBody(t, w, &got)
	assert.Len(t, got, 2)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	w := serve(t, "GET /health", NewHealthHandler(stubPinger{}, testLogger()).HealthCheck, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, "GET /health", NewHealthHandler(stubPinger{err: errors.New("down")}, testLogger()).HealthCheck, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRolesHandler(t *testing.T) {
	reg, err := permissions.NewRegistry()
	require.NoError(t, err)

	w := serve(t, "GET /api/roles", NewRolesHandler(reg).ListRoles, http.MethodGet, "/api/roles", "")
	require.Equal(t, http.StatusOK, w.Code)

	var roles []roleResponse
	decodeBody(t, w, &roles)
	require.NotEmpty(t, roles)
	assert.Equal(t, models.ProjectRoleOwner, roles[0].Name)
	assert.Contains(t, roles[0].Actions, services.ActionProjectDelete)
}
