package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
)

// maxNotifyPayload stays under Postgres' 8000-byte NOTIFY limit
const maxNotifyPayload = 7900

// NotifyPublisher publishes change events with pg_notify so every server
// instance listening on the channel sees them
type NotifyPublisher struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
}

// NewNotifyPublisher creates a publisher for channel
func NewNotifyPublisher(pool *pgxpool.Pool, channel string, logger *slog.Logger) *NotifyPublisher {
	return &NotifyPublisher{pool: pool, channel: channel, logger: logger}
}

// Publish sends ev on the channel. Failures are logged, never returned.
// Runs on the pool rather than a context transaction: NOTIFY inside a transaction
// would only fire on commit, and callers publish after commit anyway.
func (p *NotifyPublisher) Publish(ctx context.Context, ev models.ChangeEvent) {
	payload, err := EncodeNotifyPayload(ev)
	if err != nil {
		p.logger.Error("encode change event", "table", ev.Table, "record_id", ev.RecordID, "error", err)
		return
	}
	if _, err := p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, p.channel, payload); err != nil {
		p.logger.Error("pg_notify failed", "channel", p.channel, "table", ev.Table, "record_id", ev.RecordID, "error", err)
	}
}

// EncodeNotifyPayload marshals ev, dropping the record when the payload would exceed
// the NOTIFY limit. Receivers refetch by record id.
func EncodeNotifyPayload(ev models.ChangeEvent) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	if len(data) > maxNotifyPayload {
		ev.Record = nil
		if data, err = json.Marshal(ev); err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// ChangeListener holds one pooled connection in LISTEN mode and relays every
// notification into a local publisher (the realtime hub)
type ChangeListener struct {
	pool    *pgxpool.Pool
	channel string
	relay   services.ChangePublisher
	logger  *slog.Logger
}

// NewChangeListener creates a listener for channel
func NewChangeListener(pool *pgxpool.Pool, channel string, relay services.ChangePublisher, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{pool: pool, channel: channel, relay: relay, logger: logger}
}

// Run listens until ctx is cancelled, reconnecting with capped backoff
func (l *ChangeListener) Run(ctx context.Context) {
	backoff := time.Second
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("change listener disconnected, retrying", "channel", l.channel, "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info("change listener started", "channel", l.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// pgx closes a connection interrupted mid-read; the pool discards it on release
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ev models.ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			l.logger.Warn("discarding malformed change notification", "error", err)
			continue
		}
		l.relay.Publish(ctx, ev)
	}
}
