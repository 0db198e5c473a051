package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
)

// column returns task titles of one status column in position order
func column(t *testing.T, env *testEnv, projectID, status string) []string {
	t.Helper()
	tasks, err := env.tasks.ListTasks(context.Background(), alice, models.TaskFilter{ProjectID: projectID, Status: status})
	require.NoError(t, err)
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		assert.Equal(t, i, task.Position, "positions must be dense")
		titles[i] = task.Title
	}
	return titles
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	first := env.createTask(t, projectID, "one", "")
	second := env.createTask(t, projectID, "two", "")
	assert.Equal(t, models.TaskStatusTodo, first.Status)
	assert.Equal(t, models.TaskPriorityMedium, first.Priority)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, []string{
		"tx:column:" + projectID + ":" + models.TaskStatusTodo,
		"tx:column:" + projectID + ":" + models.TaskStatusTodo,
	}, env.db.locks, "creates append under the column lock")

	t.Run("assignee notified", func(t *testing.T) {
		task, err := env.tasks.CreateTask(ctx, &services.CreateTaskRequest{
			ProjectID: projectID, UserID: alice, Title: "for bob", AssigneeID: strPtr(bob),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{bob}, env.notes.recipients(models.NotificationTaskAssigned))
		assert.Equal(t, task.ID, env.notes.sent[0].ResourceID)
	})

	t.Run("self assignment is silent", func(t *testing.T) {
		env.notes.reset()
		_, err := env.tasks.CreateTask(ctx, &services.CreateTaskRequest{
			ProjectID: projectID, UserID: bob, Title: "mine", AssigneeID: strPtr(bob),
		})
		require.NoError(t, err)
		assert.Empty(t, env.notes.sent)
	})

	t.Run("assignee must be a member", func(t *testing.T) {
		_, err := env.tasks.CreateTask(ctx, &services.CreateTaskRequest{
			ProjectID: projectID, UserID: alice, Title: "x", AssigneeID: strPtr(dave),
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		_, err := env.tasks.CreateTask(ctx, &services.CreateTaskRequest{ProjectID: projectID, UserID: carol, Title: "x"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("done on create stamps completion", func(t *testing.T) {
		task := env.createTask(t, projectID, "already", models.TaskStatusDone)
		assert.NotNil(t, task.CompletedAt)
	})
}

func TestUpdateTask_StatusAndAssignee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	a := env.createTask(t, projectID, "a", "")
	env.createTask(t, projectID, "b", "")
	env.createTask(t, projectID, "z", models.TaskStatusDone)

	task, err := env.tasks.UpdateTask(ctx, a.ID, alice, &services.UpdateTaskRequest{
		AssigneeID: services.Set(bob),
	})
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, []string{bob}, env.notes.recipients(models.NotificationTaskAssigned))

	env.notes.reset()
	done := models.TaskStatusDone
	task, err = env.tasks.UpdateTask(ctx, a.ID, alice, &services.UpdateTaskRequest{Status: &done})
	require.NoError(t, err)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, 1, task.Position, "appended to the done column")
	assert.Equal(t, []string{bob}, env.notes.recipients(models.NotificationTaskStatus))
	assert.Equal(t, []string{"b"}, column(t, env, projectID, models.TaskStatusTodo))
	assert.Equal(t, []string{"z", "a"}, column(t, env, projectID, models.TaskStatusDone))

	review := models.TaskStatusReview
	task, err = env.tasks.UpdateTask(ctx, a.ID, bob, &services.UpdateTaskRequest{Status: &review})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	task, err = env.tasks.UpdateTask(ctx, a.ID, alice, &services.UpdateTaskRequest{
		AssigneeID: services.Optional[string]{Present: true},
	})
	require.NoError(t, err)
	assert.Nil(t, task.AssigneeID)

	_, err = env.tasks.UpdateTask(ctx, a.ID, carol, &services.UpdateTaskRequest{Status: &done})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMoveTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	ids := map[string]string{}
	for _, title := range []string{"a", "b", "c"} {
		ids[title] = env.createTask(t, projectID, title, models.TaskStatusTodo).ID
	}
	for _, title := range []string{"x", "y"} {
		ids[title] = env.createTask(t, projectID, title, models.TaskStatusInProgress).ID
	}

	tests := []struct {
		name       string
		task       string
		status     string
		index      int
		todo       []string
		inProgress []string
	}{
		{name: "reorder within column", task: "c", status: models.TaskStatusTodo, index: 0,
			todo: []string{"c", "a", "b"}, inProgress: []string{"x", "y"}},
		{name: "across columns", task: "a", status: models.TaskStatusInProgress, index: 1,
			todo: []string{"c", "b"}, inProgress: []string{"x", "a", "y"}},
		{name: "index clamped to end", task: "c", status: models.TaskStatusInProgress, index: 99,
			todo: []string{"b"}, inProgress: []string{"x", "a", "y", "c"}},
		{name: "back to the first column", task: "x", status: models.TaskStatusTodo, index: 0,
			todo: []string{"x", "b"}, inProgress: []string{"a", "y", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := env.tasks.MoveTask(ctx, ids[tt.task], bob, &services.MoveTaskRequest{Status: tt.status, Index: tt.index})
			require.NoError(t, err)
			assert.Equal(t, tt.status, task.Status)
			assert.Equal(t, tt.todo, column(t, env, projectID, models.TaskStatusTodo))
			assert.Equal(t, tt.inProgress, column(t, env, projectID, models.TaskStatusInProgress))
		})
	}

	_, err := env.tasks.MoveTask(ctx, ids["a"], alice, &services.MoveTaskRequest{Status: "blocked"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Both columns are locked in name order whichever way the task travels
	env.db.locks = nil
	_, err = env.tasks.MoveTask(ctx, ids["x"], bob, &services.MoveTaskRequest{Status: models.TaskStatusInProgress, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tx:column:" + projectID + ":" + models.TaskStatusInProgress,
		"tx:column:" + projectID + ":" + models.TaskStatusTodo,
	}, env.db.locks)
}

func TestDeleteTask_RemovesDependencies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	a := env.createTask(t, projectID, "a", "")
	b := env.createTask(t, projectID, "b", "")
	c := env.createTask(t, projectID, "c", "")
	_, err := env.tasks.AddDependency(ctx, b.ID, alice, a.ID)
	require.NoError(t, err)
	_, err = env.tasks.AddDependency(ctx, c.ID, alice, b.ID)
	require.NoError(t, err)

	err = env.tasks.DeleteTask(ctx, b.ID, bob)
	assert.ErrorIs(t, err, domain.ErrForbidden, "members cannot delete tasks")

	require.NoError(t, env.tasks.DeleteTask(ctx, b.ID, alice))
	assert.Empty(t, env.db.deps)
	assert.Equal(t, []string{"a", "c"}, column(t, env, projectID, models.TaskStatusTodo))
}

func TestAddDependency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")
	otherID := env.seedProject(t, "Other")

	a := env.createTask(t, projectID, "a", "")
	b := env.createTask(t, projectID, "b", "")
	c := env.createTask(t, projectID, "c", "")
	foreign := env.createTask(t, otherID, "foreign", "")

	env.db.locks = nil
	_, err := env.tasks.AddDependency(ctx, b.ID, bob, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx:graph:" + projectID}, env.db.locks, "cycle check runs under the project graph lock")
	_, err = env.tasks.AddDependency(ctx, c.ID, bob, b.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		task      string
		dependsOn string
		want      error
	}{
		{name: "self", task: a.ID, dependsOn: a.ID, want: domain.ErrValidation},
		{name: "cycle", task: a.ID, dependsOn: c.ID, want: domain.ErrValidation},
		{name: "duplicate", task: b.ID, dependsOn: a.ID, want: domain.ErrConflict},
		{name: "cross project", task: a.ID, dependsOn: foreign.ID, want: domain.ErrValidation},
		{name: "bad id", task: a.ID, dependsOn: "nope", want: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.AddDependency(ctx, tt.task, alice, tt.dependsOn)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	graph, err := env.tasks.GetDependencyGraph(ctx, projectID, carol)
	require.NoError(t, err)
	assert.Equal(t, 3, graph.Depth)
	assert.Len(t, graph.Edges, 2)

	require.NoError(t, env.tasks.RemoveDependency(ctx, c.ID, alice, b.ID))
	err = env.tasks.RemoveDependency(ctx, c.ID, alice, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDependencyGraph_StoredCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	a := env.createTask(t, projectID, "a", "")
	b := env.createTask(t, projectID, "b", "")
	_, err := env.tasks.AddDependency(ctx, b.ID, alice, a.ID)
	require.NoError(t, err)

	// Written behind the service's back, as an external edit would
	env.db.deps = append(env.db.deps, models.TaskDependency{ID: "external", ProjectID: projectID, TaskID: a.ID, DependsOnID: b.ID})

	_, err = env.tasks.GetDependencyGraph(ctx, projectID, alice)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListMyTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.seedProject(t, "Alpha")

	_, err := env.tasks.CreateTask(ctx, &services.CreateTaskRequest{ProjectID: projectID, UserID: alice, Title: "bob's", AssigneeID: strPtr(bob)})
	require.NoError(t, err)
	env.createTask(t, projectID, "unassigned", "")

	mine, err := env.tasks.ListMyTasks(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "bob's", mine[0].Title)

	_, err = env.tasks.ListTasks(ctx, dave, models.TaskFilter{ProjectID: projectID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	t.Run("left projects drop out", func(t *testing.T) {
		require.NoError(t, env.projects.RemoveMember(ctx, projectID, bob, bob))

		mine, err := env.tasks.ListMyTasks(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, mine)

		dash, err := env.dashboard.GetDashboard(ctx, bob)
		require.NoError(t, err)
		assert.Zero(t, dash.MyTasks.Total)
	})
}
