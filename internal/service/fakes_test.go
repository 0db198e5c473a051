package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
	"teamhub/internal/permissions"
	"teamhub/internal/service/auth"
)

// Fixed user ids; uuid-shaped because request validation checks them
const (
	alice = "00000000-0000-0000-0000-0000000000a1" // project owner
	bob   = "00000000-0000-0000-0000-0000000000b2" // member
	carol = "00000000-0000-0000-0000-0000000000c3" // viewer
	dave  = "00000000-0000-0000-0000-0000000000d4" // not a member
	admin = "00000000-0000-0000-0000-0000000000e5" // global admin
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the Postgres schema shared by the fake repositories
type memDB struct {
	users         map[string]models.User
	prefs         map[string]models.UserPreferences
	projects      map[string]models.Project
	members       map[string]models.ProjectMember // project|user
	tasks         map[string]models.Task
	deps          []models.TaskDependency
	messages      map[string]models.Message
	notifications map[string]models.Notification
	todos         map[string]models.PersonalTodo
	suggestions   map[string]models.Suggestion
	votes         map[string]bool // suggestion|user
	meetings      map[string]models.Meeting
	locks         []string // advisory locks taken, prefixed "tx:" when inside ExecTx
	clock         time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[string]models.User{},
		prefs:         map[string]models.UserPreferences{},
		projects:      map[string]models.Project{},
		members:       map[string]models.ProjectMember{},
		tasks:         map[string]models.Task{},
		messages:      map[string]models.Message{},
		notifications: map[string]models.Notification{},
		todos:         map[string]models.PersonalTodo{},
		suggestions:   map[string]models.Suggestion{},
		votes:         map[string]bool{},
		meetings:      map[string]models.Meeting{},
		clock:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering by time is deterministic
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func key(a, b string) string { return a + "|" + b }

type inTxKey struct{}

func (db *memDB) lock(ctx context.Context, name string) {
	if ctx.Value(inTxKey{}) != nil {
		name = "tx:" + name
	}
	db.locks = append(db.locks, name)
}

func (db *memDB) summary(id string) *models.UserSummary {
	u, ok := db.users[id]
	if !ok {
		return nil
	}
	return &models.UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, AvatarURL: u.AvatarURL}
}

func (db *memDB) liveProject(id string) bool {
	p, ok := db.projects[id]
	return ok && p.DeletedAt == nil
}

// --- users ---

type memUserRepo struct{ db *memDB }

func (r *memUserRepo) Upsert(ctx context.Context, user *models.User) error {
	existing, ok := r.db.users[user.ID]
	if ok {
		existing.Email = user.Email
		*user = existing
	} else {
		if user.Role == "" {
			user.Role = models.UserRoleMember
		}
		user.CreatedAt = r.db.tick()
		user.UpdatedAt = user.CreatedAt
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return &u, nil
}

func (r *memUserRepo) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range r.db.users {
		if strings.HasPrefix(strings.ToLower(u.FullName), q) || strings.HasPrefix(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := r.db.users[user.ID]; !ok {
		return domain.NotFound("user", user.ID)
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	u.Role = role
	r.db.users[id] = u
	return &u, nil
}

func (r *memUserRepo) GetSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary, len(ids))
	for _, id := range ids {
		if s := r.db.summary(id); s != nil {
			out[id] = s
		}
	}
	return out, nil
}

type memPrefsRepo struct{ db *memDB }

func (r *memPrefsRepo) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, ok := r.db.prefs[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPrefsRepo) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	r.db.prefs[prefs.UserID] = *prefs
	return nil
}

// --- projects and members ---

type memProjectRepo struct{ db *memDB }

func (r *memProjectRepo) Create(ctx context.Context, project *models.Project) error {
	for _, p := range r.db.projects {
		if p.DeletedAt == nil && p.OwnerID == project.OwnerID && p.Name == project.Name {
			return &domain.ConflictError{Message: "project name taken", ResourceType: "project", ResourceID: p.ID}
		}
	}
	project.ID = uuid.NewString()
	r.db.projects[project.ID] = *project
	return nil
}

func (r *memProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if !r.db.liveProject(id) {
		return nil, domain.NotFound("project", id)
	}
	p := r.db.projects[id]
	return &p, nil
}

func (r *memProjectRepo) ListForUser(ctx context.Context, userID string, all bool) ([]models.ProjectSummary, error) {
	out := []models.ProjectSummary{}
	for id, p := range r.db.projects {
		if p.DeletedAt != nil {
			continue
		}
		m, isMember := r.db.members[key(id, userID)]
		if !all && !isMember {
			continue
		}
		s := models.ProjectSummary{Project: p, MyRole: m.Role}
		for _, mm := range r.db.members {
			if mm.ProjectID == id {
				s.MemberCount++
			}
		}
		for _, t := range r.db.tasks {
			if t.ProjectID == id {
				s.TaskCount++
				if t.IsDone() {
					s.DoneCount++
				}
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if !r.db.liveProject(project.ID) {
		return domain.NotFound("project", project.ID)
	}
	r.db.projects[project.ID] = *project
	return nil
}

func (r *memProjectRepo) Delete(ctx context.Context, id string) (*models.Project, error) {
	if !r.db.liveProject(id) {
		return nil, domain.NotFound("project", id)
	}
	p := r.db.projects[id]
	now := r.db.tick()
	p.DeletedAt = &now
	r.db.projects[id] = p
	return &p, nil
}

type memMemberRepo struct{ db *memDB }

func (r *memMemberRepo) Add(ctx context.Context, member *models.ProjectMember) error {
	k := key(member.ProjectID, member.UserID)
	if _, ok := r.db.members[k]; ok {
		return &domain.ConflictError{Message: "already a member", ResourceType: "member", ResourceID: member.UserID}
	}
	if _, ok := r.db.users[member.UserID]; !ok {
		return domain.NotFound("user", member.UserID)
	}
	member.JoinedAt = r.db.tick()
	r.db.members[k] = *member
	return nil
}

func (r *memMemberRepo) Get(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	m, ok := r.db.members[key(projectID, userID)]
	if !ok {
		return nil, domain.NotFound("member", userID)
	}
	return &m, nil
}

func (r *memMemberRepo) List(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	out := []models.ProjectMember{}
	for _, m := range r.db.members {
		if m.ProjectID == projectID {
			m.User = r.db.summary(m.UserID)
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].Role == models.ProjectRoleOwner, out[j].Role == models.ProjectRoleOwner
		if oi != oj {
			return oi
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (r *memMemberRepo) UpdateRole(ctx context.Context, projectID, userID, role string) (*models.ProjectMember, error) {
	k := key(projectID, userID)
	m, ok := r.db.members[k]
	if !ok {
		return nil, domain.NotFound("member", userID)
	}
	m.Role = role
	r.db.members[k] = m
	return &m, nil
}

func (r *memMemberRepo) Remove(ctx context.Context, projectID, userID string) error {
	k := key(projectID, userID)
	if _, ok := r.db.members[k]; !ok {
		return domain.NotFound("member", userID)
	}
	delete(r.db.members, k)
	return nil
}

func (r *memMemberRepo) MemberIDs(ctx context.Context, projectID string, userIDs []string) ([]string, error) {
	out := []string{}
	for _, id := range userIDs {
		if _, ok := r.db.members[key(projectID, id)]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// --- tasks and dependencies ---

type memTaskRepo struct{ db *memDB }

func statusIndex(status string) int {
	for i, s := range models.TaskStatuses {
		if s == status {
			return i
		}
	}
	return len(models.TaskStatuses)
}

func (r *memTaskRepo) sorted(match func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range r.db.tasks {
		if r.db.liveProject(t.ProjectID) && match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID < out[j].ProjectID
		}
		if si, sj := statusIndex(out[i].Status), statusIndex(out[j].Status); si != sj {
			return si < sj
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (r *memTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = uuid.NewString()
	task.Position = len(r.sorted(func(t models.Task) bool {
		return t.ProjectID == task.ProjectID && t.Status == task.Status
	}))
	r.db.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	t, ok := r.db.tasks[id]
	if !ok || !r.db.liveProject(t.ProjectID) {
		return nil, domain.NotFound("task", id)
	}
	return &t, nil
}

func (r *memTaskRepo) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	return r.sorted(func(t models.Task) bool {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			return false
		}
		if f.AssigneeID != "" && (t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID) {
			return false
		}
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.Priority != "" && t.Priority != f.Priority {
			return false
		}
		if f.ActiveOnly {
			if t.AssigneeID == nil {
				return false
			}
			_, member := r.db.members[key(t.ProjectID, *t.AssigneeID)]
			if !member || !r.db.liveProject(t.ProjectID) {
				return false
			}
		}
		return true
	}), nil
}

func (r *memTaskRepo) ListForProjects(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	in := map[string]bool{}
	for _, id := range projectIDs {
		in[id] = true
	}
	return r.sorted(func(t models.Task) bool { return in[t.ProjectID] }), nil
}

func (r *memTaskRepo) Update(ctx context.Context, task *models.Task) error {
	stored, ok := r.db.tasks[task.ID]
	if !ok {
		return domain.NotFound("task", task.ID)
	}
	updated := *task
	updated.Position = stored.Position
	r.db.tasks[task.ID] = updated
	return nil
}

func (r *memTaskRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.db.tasks[id]; !ok {
		return domain.NotFound("task", id)
	}
	delete(r.db.tasks, id)
	return nil
}

func (r *memTaskRepo) LockColumn(ctx context.Context, projectID, status string) error {
	r.db.lock(ctx, "column:"+projectID+":"+status)
	return nil
}

func (r *memTaskRepo) ColumnIDs(ctx context.Context, projectID, status string) ([]string, error) {
	ids := []string{}
	for _, t := range r.sorted(func(t models.Task) bool { return t.ProjectID == projectID && t.Status == status }) {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (r *memTaskRepo) SetPositions(ctx context.Context, positions []models.TaskPosition) error {
	for _, p := range positions {
		t := r.db.tasks[p.ID]
		t.Status = p.Status
		t.Position = p.Position
		r.db.tasks[p.ID] = t
	}
	return nil
}

type memDependencyRepo struct{ db *memDB }

func (r *memDependencyRepo) Create(ctx context.Context, dep *models.TaskDependency) error {
	for _, d := range r.db.deps {
		if d.TaskID == dep.TaskID && d.DependsOnID == dep.DependsOnID {
			return &domain.ConflictError{Message: "dependency exists", ResourceType: "dependency", ResourceID: d.ID}
		}
	}
	dep.ID = uuid.NewString()
	dep.CreatedAt = r.db.tick()
	r.db.deps = append(r.db.deps, *dep)
	return nil
}

func (r *memDependencyRepo) Delete(ctx context.Context, taskID, dependsOnID string) error {
	for i, d := range r.db.deps {
		if d.TaskID == taskID && d.DependsOnID == dependsOnID {
			r.db.deps = append(r.db.deps[:i], r.db.deps[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("dependency", taskID)
}

func (r *memDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error) {
	out := []models.TaskDependency{}
	for _, d := range r.db.deps {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDependencyRepo) LockGraph(ctx context.Context, projectID string) error {
	r.db.lock(ctx, "graph:"+projectID)
	return nil
}

func (r *memDependencyRepo) DeleteForTask(ctx context.Context, taskID string) error {
	kept := r.db.deps[:0]
	for _, d := range r.db.deps {
		if d.TaskID != taskID && d.DependsOnID != taskID {
			kept = append(kept, d)
		}
	}
	r.db.deps = kept
	return nil
}

// --- chat ---

type memMessageRepo struct{ db *memDB }

func (r *memMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = r.db.tick()
	r.db.messages[msg.ID] = *msg
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m, ok := r.db.messages[id]
	if !ok {
		return nil, domain.NotFound("message", id)
	}
	m.Sender = r.db.summary(m.SenderID)
	return &m, nil
}

func (r *memMessageRepo) ListBefore(ctx context.Context, projectID string, before *models.MessageCursor, limit int) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range r.db.messages {
		if m.ProjectID != projectID {
			continue
		}
		if before == nil || m.CreatedAt.Before(before.CreatedAt) ||
			(m.CreatedAt.Equal(before.CreatedAt) && before.ID != "" && m.ID < before.ID) {
			out = append(out, m)
		}
	}
	models.SortMessages(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) ListSince(ctx context.Context, projectID string, since time.Time, limit int) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range r.db.messages {
		if m.ProjectID == projectID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	models.SortMessages(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error {
	m, ok := r.db.messages[id]
	if !ok {
		return domain.NotFound("message", id)
	}
	m.Content = content
	m.EditedAt = &editedAt
	r.db.messages[id] = m
	return nil
}

func (r *memMessageRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.db.messages[id]; !ok {
		return domain.NotFound("message", id)
	}
	delete(r.db.messages, id)
	return nil
}

// --- notifications ---

type memNotificationRepo struct{ db *memDB }

func (r *memNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.NewString()
	n.CreatedAt = r.db.tick()
	r.db.notifications[n.ID] = *n
	return nil
}

func (r *memNotificationRepo) List(ctx context.Context, userID string, f models.NotificationFilter) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range r.db.notifications {
		if n.UserID == userID && (!f.UnreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.db.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, ok := r.db.notifications[id]
	if !ok || n.UserID != userID {
		return nil, domain.NotFound("notification", id)
	}
	if n.ReadAt == nil {
		now := r.db.tick()
		n.ReadAt = &now
		r.db.notifications[id] = n
	}
	return &n, nil
}

func (r *memNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var count int64
	for id, n := range r.db.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			now := r.db.tick()
			n.ReadAt = &now
			r.db.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) Delete(ctx context.Context, id, userID string) error {
	n, ok := r.db.notifications[id]
	if !ok || n.UserID != userID {
		return domain.NotFound("notification", id)
	}
	delete(r.db.notifications, id)
	return nil
}

// --- todos ---

type memTodoRepo struct{ db *memDB }

func (r *memTodoRepo) Create(ctx context.Context, todo *models.PersonalTodo) error {
	todo.ID = uuid.NewString()
	todos, _ := r.List(ctx, todo.UserID)
	todo.Position = len(todos)
	r.db.todos[todo.ID] = *todo
	return nil
}

func (r *memTodoRepo) GetByID(ctx context.Context, id, userID string) (*models.PersonalTodo, error) {
	t, ok := r.db.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.NotFound("todo", id)
	}
	return &t, nil
}

func (r *memTodoRepo) List(ctx context.Context, userID string) ([]models.PersonalTodo, error) {
	out := []models.PersonalTodo{}
	for _, t := range r.db.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memTodoRepo) Update(ctx context.Context, todo *models.PersonalTodo) error {
	stored, ok := r.db.todos[todo.ID]
	if !ok || stored.UserID != todo.UserID {
		return domain.NotFound("todo", todo.ID)
	}
	updated := *todo
	updated.Position = stored.Position
	r.db.todos[todo.ID] = updated
	return nil
}

func (r *memTodoRepo) Delete(ctx context.Context, id, userID string) error {
	t, ok := r.db.todos[id]
	if !ok || t.UserID != userID {
		return domain.NotFound("todo", id)
	}
	delete(r.db.todos, id)
	return nil
}

func (r *memTodoRepo) SetPositions(ctx context.Context, userID string, ids []string) error {
	for i, id := range ids {
		t := r.db.todos[id]
		t.Position = i
		r.db.todos[id] = t
	}
	return nil
}

// --- suggestions ---

type memSuggestionRepo struct{ db *memDB }

func (r *memSuggestionRepo) view(s models.Suggestion, viewerID string) models.Suggestion {
	s.VoteCount = 0
	for k := range r.db.votes {
		if strings.HasPrefix(k, s.ID+"|") {
			s.VoteCount++
		}
	}
	s.VotedByMe = r.db.votes[key(s.ID, viewerID)]
	s.Author = r.db.summary(s.AuthorID)
	return s
}

func (r *memSuggestionRepo) Create(ctx context.Context, s *models.Suggestion) error {
	s.ID = uuid.NewString()
	s.CreatedAt = r.db.tick()
	r.db.suggestions[s.ID] = *s
	return nil
}

func (r *memSuggestionRepo) GetByID(ctx context.Context, id, viewerID string) (*models.Suggestion, error) {
	s, ok := r.db.suggestions[id]
	if !ok {
		return nil, domain.NotFound("suggestion", id)
	}
	v := r.view(s, viewerID)
	return &v, nil
}

func (r *memSuggestionRepo) List(ctx context.Context, f models.SuggestionFilter, viewerID string) ([]models.Suggestion, error) {
	out := []models.Suggestion{}
	for _, s := range r.db.suggestions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.ProjectID != "" && (s.ProjectID == nil || *s.ProjectID != f.ProjectID) {
			continue
		}
		out = append(out, r.view(s, viewerID))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memSuggestionRepo) Update(ctx context.Context, s *models.Suggestion) error {
	if _, ok := r.db.suggestions[s.ID]; !ok {
		return domain.NotFound("suggestion", s.ID)
	}
	r.db.suggestions[s.ID] = *s
	return nil
}

func (r *memSuggestionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.db.suggestions[id]; !ok {
		return domain.NotFound("suggestion", id)
	}
	delete(r.db.suggestions, id)
	return nil
}

func (r *memSuggestionRepo) ToggleVote(ctx context.Context, suggestionID, userID string) (bool, error) {
	k := key(suggestionID, userID)
	if r.db.votes[k] {
		delete(r.db.votes, k)
		return false, nil
	}
	r.db.votes[k] = true
	return true, nil
}

// --- meetings ---

type memMeetingRepo struct{ db *memDB }

func copyMeeting(m models.Meeting) models.Meeting {
	m.Participants = append([]models.MeetingParticipant(nil), m.Participants...)
	return m
}

func (r *memMeetingRepo) Create(ctx context.Context, m *models.Meeting) error {
	m.ID = uuid.NewString()
	for i := range m.Participants {
		m.Participants[i].MeetingID = m.ID
	}
	r.db.meetings[m.ID] = copyMeeting(*m)
	return nil
}

func (r *memMeetingRepo) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	m, ok := r.db.meetings[id]
	if !ok {
		return nil, domain.NotFound("meeting", id)
	}
	m = copyMeeting(m)
	return &m, nil
}

func (r *memMeetingRepo) ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Meeting, error) {
	out := []models.Meeting{}
	for _, m := range r.db.meetings {
		if m.HasParticipant(userID) && m.StartsAt.Before(to) && m.EndsAt.After(from) {
			out = append(out, copyMeeting(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *memMeetingRepo) Update(ctx context.Context, m *models.Meeting) error {
	stored, ok := r.db.meetings[m.ID]
	if !ok {
		return domain.NotFound("meeting", m.ID)
	}
	updated := copyMeeting(*m)
	updated.Participants = stored.Participants
	r.db.meetings[m.ID] = updated
	return nil
}

func (r *memMeetingRepo) ReplaceParticipants(ctx context.Context, meetingID string, participants []models.MeetingParticipant) error {
	m, ok := r.db.meetings[meetingID]
	if !ok {
		return domain.NotFound("meeting", meetingID)
	}
	m.Participants = append([]models.MeetingParticipant(nil), participants...)
	for i := range m.Participants {
		m.Participants[i].MeetingID = meetingID
	}
	r.db.meetings[meetingID] = m
	return nil
}

func (r *memMeetingRepo) SetResponse(ctx context.Context, meetingID, userID, response string) error {
	m, ok := r.db.meetings[meetingID]
	if !ok {
		return domain.NotFound("meeting", meetingID)
	}
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			m.Participants[i].Response = response
			r.db.meetings[meetingID] = m
			return nil
		}
	}
	return domain.NotFound("participant", userID)
}

func (r *memMeetingRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.db.meetings[id]; !ok {
		return domain.NotFound("meeting", id)
	}
	delete(r.db.meetings, id)
	return nil
}

// --- collaborators ---

// passthroughTx runs fn inline; the fakes have no rollback
type passthroughTx struct{ calls int }

func (t *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.calls++
	return fn(context.WithValue(ctx, inTxKey{}, true))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev models.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// last returns the most recent event for table
func (p *recordingPublisher) last(t *testing.T, table string) models.ChangeEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Table == table {
			return p.events[i]
		}
	}
	t.Fatalf("no %s event published", table)
	return models.ChangeEvent{}
}

type recordingNotifier struct {
	sent []models.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note *models.Notification) {
	n.sent = append(n.sent, *note)
}

func (n *recordingNotifier) recipients(kind string) []string {
	var out []string
	for _, note := range n.sent {
		if note.Type == kind {
			out = append(out, note.UserID)
		}
	}
	sort.Strings(out)
	return out
}

func (n *recordingNotifier) reset() { n.sent = nil }

// --- environment ---

type testEnv struct {
	db          *memDB
	tx          *passthroughTx
	pub         *recordingPublisher
	notes       *recordingNotifier
	authz       *auth.MembershipAuthorizer
	users       services.UserService
	projects    services.ProjectService
	tasks       services.TaskService
	messages    services.MessageService
	todos       services.TodoService
	suggestions services.SuggestionService
	meetings    services.MeetingService
	dashboard   *dashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry, err := permissions.NewRegistry()
	require.NoError(t, err)

	db := newMemDB()
	for _, u := range []models.User{
		{ID: alice, Email: "alice@example.com", FullName: "Alice Owner", Role: models.UserRoleMember},
		{ID: bob, Email: "bob@example.com", FullName: "Bob Member", Role: models.UserRoleMember},
		{ID: carol, Email: "carol@example.com", FullName: "Carol Viewer", Role: models.UserRoleMember},
		{ID: dave, Email: "dave@example.com", FullName: "Dave Outsider", Role: models.UserRoleMember},
		{ID: admin, Email: "root@example.com", FullName: "Ada Admin", Role: models.UserRoleAdmin},
	} {
		db.users[u.ID] = u
	}

	projectRepo := &memProjectRepo{db}
	memberRepo := &memMemberRepo{db}
	userRepo := &memUserRepo{db}
	taskRepo := &memTaskRepo{db}
	tx := &passthroughTx{}
	pub := &recordingPublisher{}
	notes := &recordingNotifier{}
	logger := testLogger()
	authz := auth.NewMembershipAuthorizer(projectRepo, memberRepo, userRepo, registry)

	dash := NewDashboardService(projectRepo, memberRepo, taskRepo, &memTodoRepo{db}, &memMeetingRepo{db},
		&memNotificationRepo{db}, authz, logger).(*dashboardService)
	dash.now = func() time.Time { return db.clock }

	return &testEnv{
		db:          db,
		tx:          tx,
		pub:         pub,
		notes:       notes,
		authz:       authz,
		users:       NewUserService(userRepo, authz, logger),
		projects:    NewProjectService(projectRepo, memberRepo, tx, authz, notes, pub, logger),
		tasks:       NewTaskService(taskRepo, &memDependencyRepo{db}, memberRepo, tx, authz, notes, pub, logger),
		messages:    NewMessageService(&memMessageRepo{db}, memberRepo, authz, notes, pub, logger),
		todos:       NewTodoService(&memTodoRepo{db}, tx, pub, logger),
		suggestions: NewSuggestionService(&memSuggestionRepo{db}, authz, notes, pub, logger),
		meetings:    NewMeetingService(&memMeetingRepo{db}, memberRepo, tx, authz, notes, pub, logger),
		dashboard:   dash,
	}
}

// seedProject creates alice's project with bob as member and carol as viewer
func (e *testEnv) seedProject(t *testing.T, name string) string {
	t.Helper()
	ctx := context.Background()

	project, err := e.projects.CreateProject(ctx, &services.CreateProjectRequest{UserID: alice, Name: name})
	require.NoError(t, err)
	_, err = e.projects.AddMember(ctx, project.ID, alice, &services.AddMemberRequest{UserID: bob, Role: models.ProjectRoleMember})
	require.NoError(t, err)
	_, err = e.projects.AddMember(ctx, project.ID, alice, &services.AddMemberRequest{UserID: carol, Role: models.ProjectRoleViewer})
	require.NoError(t, err)

	e.notes.reset()
	return project.ID
}

func (e *testEnv) createTask(t *testing.T, projectID, title, status string) *models.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), &services.CreateTaskRequest{
		ProjectID: projectID,
		UserID:    alice,
		Title:     title,
		Status:    status,
	})
	require.NoError(t, err)
	return task
}

func strPtr(s string) *string { return &s }
