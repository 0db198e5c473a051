package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
)

const (
	// catchUpPageSize is how many history rows one catch-up query loads
	catchUpPageSize = 200

	// catchUpMax caps the replay; past it the stream reports Truncated and
	// the client refetches history over the REST endpoint
	catchUpMax = 5000

	// seenCapacity bounds the per-stream de-duplication memory
	seenCapacity = 1024
)

var knownTables = map[string]bool{
	models.TableProjects:      true,
	models.TableMembers:       true,
	models.TableTasks:         true,
	models.TableDependencies:  true,
	models.TableMessages:      true,
	models.TableNotifications: true,
	models.TableTodos:         true,
	models.TableSuggestions:   true,
	models.TableMeetings:      true,
}

// ProjectAccessChecker authorizes project-scoped subscriptions
type ProjectAccessChecker interface {
	CanAccessProject(ctx context.Context, userID, projectID string) error
}

// HistoryLoader loads chat history for catch-up
type HistoryLoader interface {
	ListMessagesSince(ctx context.Context, projectID, userID string, since time.Time, limit int) ([]models.Message, error)
}

// SubscribeRequest is what a client asks for
type SubscribeRequest struct {
	Tables    []string   `json:"tables"`
	ProjectID string     `json:"project_id"`
	Since     *time.Time `json:"since"` // Replay chat history from here (messages only)
}

// Feed authorizes subscriptions and opens streams on the hub
type Feed struct {
	hub     *Hub
	access  ProjectAccessChecker
	history HistoryLoader
	logger  *slog.Logger
}

// NewFeed creates a feed over hub
func NewFeed(hub *Hub, access ProjectAccessChecker, history HistoryLoader, logger *slog.Logger) *Feed {
	return &Feed{hub: hub, access: access, history: history, logger: logger}
}

// Open validates and authorizes req, subscribes, then loads catch-up history.
// Subscribing before loading history means no message falls between the two;
// duplicates are removed by the stream.
func (f *Feed) Open(ctx context.Context, userID string, req SubscribeRequest) (*Stream, error) {
	filter, err := f.authorize(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	sub := f.hub.Subscribe(filter)
	stream := &Stream{
		hub:  f.hub,
		sub:  sub,
		seen: NewSeenSet(seenCapacity),
	}

	if req.Since != nil && includesTable(filter.Tables, models.TableMessages) {
		if err := f.catchUp(ctx, stream, filter.ProjectID, userID, *req.Since); err != nil {
			f.hub.Unsubscribe(sub)
			return nil, fmt.Errorf("load catch-up history: %w", err)
		}
	}

	f.logger.Debug("realtime stream opened", "user_id", userID, "project_id", filter.ProjectID,
		"tables", filter.Tables, "catch_up", len(stream.backlog), "truncated", stream.truncated)
	return stream, nil
}

// catchUp pages chat history from since until it is exhausted. Pages overlap
// on the boundary timestamp; the seen-set drops the repeats.
func (f *Feed) catchUp(ctx context.Context, stream *Stream, projectID, userID string, since time.Time) error {
	cursor := since
	for {
		page, err := f.history.ListMessagesSince(ctx, projectID, userID, cursor, catchUpPageSize)
		if err != nil {
			return err
		}
		models.SortMessages(page)

		added := 0
		for i := range page {
			m := page[i]
			if !stream.seen.Add(m.ID) {
				continue
			}
			ev := models.NewChangeEvent(models.TableMessages, models.ChangeInsert, m.ProjectID, "", m.ID, m)
			ev.OccurredAt = m.CreatedAt
			stream.backlog = append(stream.backlog, ev)
			added++
		}

		if len(page) < catchUpPageSize {
			return nil
		}
		// A full page with nothing new means one timestamp holds more rows than a page
		if added == 0 || len(stream.backlog) >= catchUpMax {
			stream.truncated = true
			return nil
		}
		cursor = page[len(page)-1].CreatedAt
	}
}

func (f *Feed) authorize(ctx context.Context, userID string, req SubscribeRequest) (Filter, error) {
	filter := Filter{ProjectID: req.ProjectID, UserID: userID}

	for _, t := range req.Tables {
		if !knownTables[t] {
			return Filter{}, domain.Validation("unknown table %q", t)
		}
	}

	if req.ProjectID == "" {
		// Without a project only the caller's own rows and org-wide tables are observable
		if len(req.Tables) == 0 {
			filter.Tables = []string{models.TableNotifications, models.TableTodos}
			return filter, nil
		}
		for _, t := range req.Tables {
			if !models.UserScopedTables[t] && !models.OrgWideTables[t] {
				return Filter{}, domain.Validation("table %q requires project_id", t)
			}
		}
		filter.Tables = req.Tables
		return filter, nil
	}

	if _, err := uuid.Parse(req.ProjectID); err != nil {
		return Filter{}, domain.Validation("project_id must be a valid UUID")
	}
	if err := f.access.CanAccessProject(ctx, userID, req.ProjectID); err != nil {
		return Filter{}, err
	}
	filter.Tables = req.Tables
	if len(filter.Tables) == 0 {
		for t := range knownTables {
			filter.Tables = append(filter.Tables, t)
		}
	}
	if req.Since != nil && !includesTable(filter.Tables, models.TableMessages) {
		return Filter{}, domain.Validation("since requires the %s table", models.TableMessages)
	}
	return filter, nil
}

func includesTable(tables []string, table string) bool {
	for _, t := range tables {
		if t == table {
			return true
		}
	}
	return false
}

// Stream yields catch-up history first, then live events, skipping chat messages
// that were already delivered
type Stream struct {
	hub     *Hub
	sub     *Subscription
	backlog []models.ChangeEvent
	seen    *SeenSet

	truncated bool
}

// ErrStreamLagged is returned by Next when the hub dropped the stream for falling behind
var ErrStreamLagged = errors.New("realtime stream fell behind and was dropped")

// Next blocks for the next event. ok is false once the stream has ended;
// err then tells a lagging drop or cancelled ctx apart from a normal close.
func (s *Stream) Next(ctx context.Context) (models.ChangeEvent, bool, error) {
	if len(s.backlog) > 0 {
		ev := s.backlog[0]
		s.backlog = s.backlog[1:]
		return ev, true, nil
	}

	for {
		select {
		case <-ctx.Done():
			return models.ChangeEvent{}, false, ctx.Err()
		case ev, ok := <-s.sub.C:
			if !ok {
				if s.sub.Dropped() {
					return models.ChangeEvent{}, false, ErrStreamLagged
				}
				return models.ChangeEvent{}, false, nil
			}
			if ev.Table == models.TableMessages && ev.Action == models.ChangeInsert && !s.seen.Add(ev.RecordID) {
				continue
			}
			return ev, true, nil
		}
	}
}

// Truncated reports whether catch-up stopped before reaching the present.
// Messages between the replay and the first live event are then missing.
func (s *Stream) Truncated() bool {
	return s.truncated
}

// Filter returns the authorized filter the stream was opened with
func (s *Stream) Filter() Filter {
	return s.sub.Filter
}

// Close unsubscribes the stream
func (s *Stream) Close() {
	s.hub.Unsubscribe(s.sub)
}
