// Package realtime fans committed row changes out to connected clients.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"teamhub/internal/domain/models"
)

// DefaultBufferSize is the per-subscriber queue length
const DefaultBufferSize = 256

// Filter selects which events a subscriber receives. Empty fields match everything,
// except that events on user-scoped tables only ever reach their recipient.
type Filter struct {
	Tables    []string `json:"tables,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	UserID    string   `json:"-"` // Set from the authenticated caller, never from the client
}

// Matches reports whether ev passes the filter
func (f Filter) Matches(ev models.ChangeEvent) bool {
	if models.UserScopedTables[ev.Table] && ev.UserID != f.UserID {
		return false
	}
	if len(f.Tables) > 0 {
		found := false
		for _, t := range f.Tables {
			if t == ev.Table {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ProjectID != "" && ev.ProjectID != f.ProjectID {
		return false
	}
	return true
}

// Subscription is a live event stream. C is closed when the subscriber is
// unsubscribed, dropped for falling behind, or the hub shuts down.
type Subscription struct {
	ID     string
	Filter Filter
	C      <-chan models.ChangeEvent

	ch      chan models.ChangeEvent
	dropped atomic.Bool
}

// Dropped reports whether the hub closed the subscription because its buffer filled
func (s *Subscription) Dropped() bool {
	return s.dropped.Load()
}

// Hub maintains the set of active subscriptions and broadcasts events to them
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	seq        atomic.Int64
	bufferSize int
	closed     bool
	logger     *slog.Logger
}

// NewHub creates a new hub instance
func NewHub(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subs:       make(map[string]*Subscription),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a subscriber. On a closed hub the returned channel is already closed.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	ch := make(chan models.ChangeEvent, h.bufferSize)
	sub := &Subscription{
		ID:     uuid.NewString(),
		Filter: filter,
		C:      ch,
		ch:     ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	h.logger.Debug("realtime subscriber added", "subscription_id", sub.ID, "user_id", filter.UserID,
		"project_id", filter.ProjectID, "tables", filter.Tables)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; ok {
		delete(h.subs, sub.ID)
		close(sub.ch)
	}
}

// Publish stamps the next sequence number and delivers ev to every matching subscriber.
// A subscriber whose buffer is full is dropped rather than blocking the publisher.
func (h *Hub) Publish(_ context.Context, ev models.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	// Assigned under the lock so every subscriber observes increasing seq
	ev.Seq = h.seq.Add(1)

	for id, sub := range h.subs {
		if !sub.Filter.Matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Store(true)
			delete(h.subs, id)
			close(sub.ch)
			h.logger.Warn("realtime subscriber dropped: buffer full",
				"subscription_id", id, "user_id", sub.Filter.UserID)
		}
	}
}

// LastSeq returns the most recently assigned sequence number
func (h *Hub) LastSeq() int64 {
	return h.seq.Load()
}

// SubscriberCount returns the number of live subscriptions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription; later publishes are ignored
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
