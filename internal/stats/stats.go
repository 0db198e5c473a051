// Package stats derives dashboard and report figures from in-memory rows.
// Everything here is pure and recomputed per request; nothing is persisted.
package stats

import (
	"sort"
	"time"

	"teamhub/internal/config"
	"teamhub/internal/domain/models"
)

// ComputeTaskStats summarizes tasks as of now
func ComputeTaskStats(tasks []models.Task, now time.Time) models.TaskStats {
	s := models.TaskStats{
		Total:      len(tasks),
		ByStatus:   make(map[string]int, len(models.TaskStatuses)),
		ByPriority: make(map[string]int, len(models.TaskPriorities)),
	}
	for _, st := range models.TaskStatuses {
		s.ByStatus[st] = 0
	}
	for _, p := range models.TaskPriorities {
		s.ByPriority[p] = 0
	}

	dueSoonLimit := now.Add(config.DueSoonWindow)
	for i := range tasks {
		t := &tasks[i]
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++

		if t.AssigneeID == nil {
			s.Unassigned++
		}
		if t.IsDone() {
			s.Completed++
			continue
		}
		if t.DueDate == nil {
			continue
		}
		switch {
		case t.DueDate.Before(now):
			s.Overdue++
		case !t.DueDate.After(dueSoonLimit):
			s.DueSoon++
		}
	}

	s.CompletionRate = CompletionRate(s.Completed, s.Total)
	return s
}

// CompletionRate returns done/total rounded to 4 places, 0 for an empty set
func CompletionRate(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(done) / float64(total)
	return float64(int(rate*10000+0.5)) / 10000
}

// ComputeWorkload counts open, overdue and completed tasks per assignee.
// Unassigned tasks are skipped. Sorted by open DESC, then overdue DESC, then user id.
func ComputeWorkload(tasks []models.Task, now time.Time) []models.MemberWorkload {
	byUser := make(map[string]*models.MemberWorkload)
	for i := range tasks {
		t := &tasks[i]
		if t.AssigneeID == nil {
			continue
		}
		w, ok := byUser[*t.AssigneeID]
		if !ok {
			w = &models.MemberWorkload{UserID: *t.AssigneeID, User: t.Assignee}
			byUser[*t.AssigneeID] = w
		}
		if t.IsDone() {
			w.Completed++
			continue
		}
		w.Open++
		if t.IsOverdue(now) {
			w.Overdue++
		}
	}

	out := make([]models.MemberWorkload, 0, len(byUser))
	for _, w := range byUser {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Open != out[j].Open {
			return out[i].Open > out[j].Open
		}
		if out[i].Overdue != out[j].Overdue {
			return out[i].Overdue > out[j].Overdue
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// ComputeTodoStats summarizes personal to-dos as of now
func ComputeTodoStats(todos []models.PersonalTodo, now time.Time) models.TodoStats {
	s := models.TodoStats{Total: len(todos)}
	for i := range todos {
		if todos[i].Completed {
			s.Completed++
		} else if todos[i].IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

// ComputeProjectProgress builds one progress row per project from a flat task list.
// Projects without tasks still get a row.
func ComputeProjectProgress(projects []models.ProjectSummary, tasks []models.Task, now time.Time) []models.ProjectProgress {
	byProject := make(map[string][]models.Task, len(projects))
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}

	out := make([]models.ProjectProgress, 0, len(projects))
	for _, p := range projects {
		ts := ComputeTaskStats(byProject[p.ID], now)
		out = append(out, models.ProjectProgress{
			ProjectID:      p.ID,
			Name:           p.Name,
			Status:         p.Status,
			TaskCount:      ts.Total,
			CompletionRate: ts.CompletionRate,
			Overdue:        ts.Overdue,
		})
	}
	return out
}
