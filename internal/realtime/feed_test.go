package realtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
)

const projectP1 = "7d0f3c1e-1a2b-4c3d-8e9f-000000000001"

type fakeAccess struct {
	members map[string]bool // projectID|userID
}

func (f *fakeAccess) CanAccessProject(_ context.Context, userID, projectID string) error {
	if f.members[projectID+"|"+userID] {
		return nil
	}
	return domain.Forbidden("not a member")
}

type fakeHistory struct {
	msgs  []models.Message
	err   error
	calls int
}

func (f *fakeHistory) ListMessagesSince(_ context.Context, projectID, _ string, since time.Time, limit int) ([]models.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Message
	for _, m := range f.msgs {
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

// backlog returns n messages one second apart starting at base
func backlog(n int, base time.Time, step time.Duration) []models.Message {
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{ID: fmt.Sprintf("m%04d", i), ProjectID: projectP1, CreatedAt: base.Add(time.Duration(i) * step)}
	}
	return msgs
}

func newTestFeed(history *fakeHistory) (*Feed, *Hub) {
	hub := NewHub(testLogger(), 16)
	access := &fakeAccess{members: map[string]bool{projectP1 + "|u1": true}}
	return NewFeed(hub, access, history, testLogger()), hub
}

func TestFeed_Authorization(t *testing.T) {
	feed, _ := newTestFeed(&fakeHistory{})
	ctx := context.Background()

	_, err := feed.Open(ctx, "u2", SubscribeRequest{ProjectID: projectP1})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = feed.Open(ctx, "u1", SubscribeRequest{Tables: []string{"bogus"}, ProjectID: projectP1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = feed.Open(ctx, "u1", SubscribeRequest{ProjectID: "not-a-uuid"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = feed.Open(ctx, "u1", SubscribeRequest{Tables: []string{models.TableTasks}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	since := time.Now()
	_, err = feed.Open(ctx, "u1", SubscribeRequest{Tables: []string{models.TableTasks}, ProjectID: projectP1, Since: &since})
	assert.ErrorIs(t, err, domain.ErrValidation)

	s, err := feed.Open(ctx, "u1", SubscribeRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.TableNotifications, models.TableTodos}, s.Filter().Tables)
	assert.Equal(t, "u1", s.Filter().UserID)
	s.Close()
}

func TestFeed_UserScopedEventsOnlyReachRecipient(t *testing.T) {
	feed, hub := newTestFeed(&fakeHistory{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := feed.Open(ctx, "u1", SubscribeRequest{Tables: []string{models.TableNotifications}})
	require.NoError(t, err)
	defer s.Close()

	hub.Publish(ctx, models.ChangeEvent{Table: models.TableNotifications, UserID: "u2", RecordID: "n-other"})
	hub.Publish(ctx, models.ChangeEvent{Table: models.TableNotifications, UserID: "u1", RecordID: "n-mine"})

	ev, ok, err := s.Next(ctx)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "n-mine", ev.RecordID)
}

func TestFeed_CatchUpThenLiveWithoutDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{msgs: []models.Message{
		{ID: "m2", ProjectID: projectP1, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m1", ProjectID: projectP1, CreatedAt: base.Add(time.Minute)},
		{ID: "m0", ProjectID: projectP1, CreatedAt: base.Add(-time.Minute)},
	}}
	feed, hub := newTestFeed(history)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := feed.Open(ctx, "u1", SubscribeRequest{
		Tables:    []string{models.TableMessages},
		ProjectID: projectP1,
		Since:     &base,
	})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 1, history.calls)

	// m2 arrives live as well as in history; it must be delivered once
	hub.Publish(ctx, models.ChangeEvent{Table: models.TableMessages, Action: models.ChangeInsert, ProjectID: projectP1, RecordID: "m2"})
	hub.Publish(ctx, models.ChangeEvent{Table: models.TableMessages, Action: models.ChangeInsert, ProjectID: projectP1, RecordID: "m3"})
	hub.Publish(ctx, models.ChangeEvent{Table: models.TableMessages, Action: models.ChangeUpdate, ProjectID: projectP1, RecordID: "m1"})

	var got []string
	for i := 0; i < 4; i++ {
		ev, ok, err := s.Next(ctx)
		require.True(t, ok)
		require.NoError(t, err)
		got = append(got, ev.Action+":"+ev.RecordID)
	}
	assert.Equal(t, []string{"insert:m1", "insert:m2", "insert:m3", "update:m1"}, got)
}

func TestFeed_CatchUpPagesThroughLongBacklog(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{msgs: backlog(600, base, time.Second)}
	feed, hub := newTestFeed(history)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := feed.Open(ctx, "u1", SubscribeRequest{Tables: []string{models.TableMessages}, ProjectID: projectP1, Since: &base})
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Truncated())
	assert.Greater(t, history.calls, 1)

	hub.Publish(ctx, models.ChangeEvent{Table: models.TableMessages, Action: models.ChangeInsert, ProjectID: projectP1, RecordID: "live"})

	var got []string
	for i := 0; i < 601; i++ {
		ev, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, ev.RecordID)
	}
	assert.Equal(t, "m0000", got[0])
	assert.Equal(t, "m0599", got[599])
	assert.Equal(t, "live", got[600])
}

func TestFeed_CatchUpReportsTruncation(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("over the replay cap", func(t *testing.T) {
		feed, _ := newTestFeed(&fakeHistory{msgs: backlog(catchUpMax+50, base, time.Second)})
		s, err := feed.Open(context.Background(), "u1", SubscribeRequest{ProjectID: projectP1, Since: &base})
		require.NoError(t, err)
		defer s.Close()
		assert.True(t, s.Truncated())
	})

	t.Run("one timestamp larger than a page", func(t *testing.T) {
		feed, _ := newTestFeed(&fakeHistory{msgs: backlog(catchUpPageSize+10, base, 0)})
		s, err := feed.Open(context.Background(), "u1", SubscribeRequest{ProjectID: projectP1, Since: &base})
		require.NoError(t, err)
		defer s.Close()
		assert.True(t, s.Truncated())
	})
}

func TestFeed_HistoryFailureUnsubscribes(t *testing.T) {
	feed, hub := newTestFeed(&fakeHistory{err: errors.New("db down")})
	since := time.Now()

	_, err := feed.Open(context.Background(), "u1", SubscribeRequest{ProjectID: projectP1, Since: &since})
	require.Error(t, err)
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestStream_ReportsLag(t *testing.T) {
	hub := NewHub(testLogger(), 1)
	feed := NewFeed(hub, &fakeAccess{members: map[string]bool{projectP1 + "|u1": true}}, &fakeHistory{}, testLogger())
	ctx := context.Background()

	s, err := feed.Open(ctx, "u1", SubscribeRequest{ProjectID: projectP1})
	require.NoError(t, err)

	hub.Publish(ctx, models.ChangeEvent{Table: models.TableTasks, ProjectID: projectP1, RecordID: "a"})
	hub.Publish(ctx, models.ChangeEvent{Table: models.TableTasks, ProjectID: projectP1, RecordID: "b"})

	ev, ok, err := s.Next(ctx)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "a", ev.RecordID)

	_, ok, err = s.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStreamLagged)
}
