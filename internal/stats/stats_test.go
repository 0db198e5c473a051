package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"teamhub/internal/domain/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func task(id, status, priority string, assignee *string, due *time.Time) models.Task {
	return models.Task{ID: id, ProjectID: "p1", Status: status, Priority: priority, AssigneeID: assignee, DueDate: due}
}

func TestComputeTaskStats(t *testing.T) {
	alice := ptr("alice")
	tasks := []models.Task{
		task("1", models.TaskStatusDone, models.TaskPriorityHigh, alice, ptr(now.Add(-48*time.Hour))),
		task("2", models.TaskStatusTodo, models.TaskPriorityHigh, alice, ptr(now.Add(-time.Hour))),
		task("3", models.TaskStatusInProgress, models.TaskPriorityLow, nil, ptr(now.Add(72*time.Hour))),
		task("4", models.TaskStatusReview, models.TaskPriorityUrgent, nil, ptr(now.Add(30*24*time.Hour))),
		task("5", models.TaskStatusTodo, models.TaskPriorityMedium, alice, nil),
	}

	s := ComputeTaskStats(tasks, now)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 0.2, s.CompletionRate)
	assert.Equal(t, 1, s.Overdue, "done task past due is not overdue")
	assert.Equal(t, 1, s.DueSoon)
	assert.Equal(t, 2, s.Unassigned)
	assert.Equal(t, 2, s.ByStatus[models.TaskStatusTodo])
	assert.Equal(t, 2, s.ByPriority[models.TaskPriorityHigh])
	assert.Equal(t, 0, s.ByPriority["nonexistent"])
}

func TestComputeTaskStats_Empty(t *testing.T) {
	s := ComputeTaskStats(nil, now)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.CompletionRate)
	assert.Len(t, s.ByStatus, len(models.TaskStatuses), "every status is present with zero")
	assert.Len(t, s.ByPriority, len(models.TaskPriorities))
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 0.3333},
		{2, 3, 0.6667},
		{3, 3, 1},
		{5, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletionRate(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}

func TestComputeWorkload(t *testing.T) {
	alice, bob := ptr("alice"), ptr("bob")
	tasks := []models.Task{
		task("1", models.TaskStatusTodo, models.TaskPriorityLow, bob, ptr(now.Add(-time.Hour))),
		task("2", models.TaskStatusTodo, models.TaskPriorityLow, alice, nil),
		task("3", models.TaskStatusTodo, models.TaskPriorityLow, alice, nil),
		task("4", models.TaskStatusDone, models.TaskPriorityLow, bob, nil),
		task("5", models.TaskStatusTodo, models.TaskPriorityLow, nil, nil),
	}

	w := ComputeWorkload(tasks, now)

	assert.Equal(t, []models.MemberWorkload{
		{UserID: "alice", Open: 2},
		{UserID: "bob", Open: 1, Overdue: 1, Completed: 1},
	}, w)
}

func TestComputeTodoStats(t *testing.T) {
	todos := []models.PersonalTodo{
		{ID: "1", Completed: true, DueDate: ptr(now.Add(-time.Hour))},
		{ID: "2", DueDate: ptr(now.Add(-time.Hour))},
		{ID: "3", DueDate: ptr(now.Add(time.Hour))},
		{ID: "4"},
	}

	assert.Equal(t, models.TodoStats{Total: 4, Completed: 1, Overdue: 1}, ComputeTodoStats(todos, now))
}

func TestComputeProjectProgress(t *testing.T) {
	projects := []models.ProjectSummary{
		{Project: models.Project{ID: "p1", Name: "Alpha", Status: models.ProjectStatusActive}},
		{Project: models.Project{ID: "p2", Name: "Beta", Status: models.ProjectStatusOnHold}},
	}
	tasks := []models.Task{
		task("1", models.TaskStatusDone, models.TaskPriorityLow, nil, nil),
		task("2", models.TaskStatusTodo, models.TaskPriorityLow, nil, ptr(now.Add(-time.Hour))),
	}

	got := ComputeProjectProgress(projects, tasks, now)

	assert.Equal(t, []models.ProjectProgress{
		{ProjectID: "p1", Name: "Alpha", Status: models.ProjectStatusActive, TaskCount: 2, CompletionRate: 0.5, Overdue: 1},
		{ProjectID: "p2", Name: "Beta", Status: models.ProjectStatusOnHold},
	}, got)
}
