package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Outbound frames queued per connection
	sendBuffer = 256
)

// Frame types
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameSubscribed  = "subscribed"
	FrameEvent       = "event"
	FrameError       = "error"
	FrameClosed      = "closed"
)

// ClientFrame is a message from the browser
type ClientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"` // Client-chosen subscription id
	SubscribeRequest
}

// ServerFrame is a message to the browser
type ServerFrame struct {
	Type   string              `json:"type"`
	ID     string              `json:"id,omitempty"`
	Event  *models.ChangeEvent `json:"event,omitempty"`
	Error  string              `json:"error,omitempty"`
	Reason string              `json:"reason,omitempty"`
	// Truncated is set on a subscribed frame whose chat catch-up was cut short
	Truncated bool `json:"truncated,omitempty"`
}

// Client is one WebSocket connection carrying any number of subscriptions
type Client struct {
	feed   *Feed
	conn   *websocket.Conn
	userID string
	send   chan []byte
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	streams map[string]*Stream
	wg      sync.WaitGroup
}

// NewClient wraps an upgraded connection for the authenticated user
func NewClient(ctx context.Context, feed *Feed, conn *websocket.Conn, userID string, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		feed:    feed,
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		streams: make(map[string]*Stream),
	}
}

// Run serves the connection until the peer goes away or ctx ends
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
}

// ReadPump pumps frames from the WebSocket connection into subscriptions
func (c *Client) ReadPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.enqueue(ServerFrame{Type: FrameError, Error: "malformed frame"})
			continue
		}

		switch frame.Type {
		case FramePing:
			c.enqueue(ServerFrame{Type: FramePong})
		case FrameSubscribe:
			c.subscribe(frame)
		case FrameUnsubscribe:
			c.unsubscribe(frame.ID)
		default:
			c.enqueue(ServerFrame{Type: FrameError, ID: frame.ID, Error: "unknown frame type " + frame.Type})
		}
	}
}

func (c *Client) subscribe(frame ClientFrame) {
	if frame.ID == "" {
		c.enqueue(ServerFrame{Type: FrameError, Error: "subscribe requires id"})
		return
	}

	c.mu.Lock()
	_, exists := c.streams[frame.ID]
	c.mu.Unlock()
	if exists {
		c.enqueue(ServerFrame{Type: FrameError, ID: frame.ID, Error: "subscription id already in use"})
		return
	}

	stream, err := c.feed.Open(c.ctx, c.userID, frame.SubscribeRequest)
	if err != nil {
		c.enqueue(ServerFrame{Type: FrameError, ID: frame.ID, Error: publicError(err)})
		return
	}

	c.mu.Lock()
	c.streams[frame.ID] = stream
	c.mu.Unlock()
	c.enqueue(ServerFrame{Type: FrameSubscribed, ID: frame.ID, Truncated: stream.Truncated()})

	c.wg.Add(1)
	go c.forward(frame.ID, stream)
}

// forward copies one stream into the connection's send queue
func (c *Client) forward(id string, stream *Stream) {
	defer c.wg.Done()
	for {
		ev, ok, err := stream.Next(c.ctx)
		if !ok {
			if errors.Is(err, ErrStreamLagged) {
				c.enqueue(ServerFrame{Type: FrameClosed, ID: id, Reason: "lagging"})
				c.removeStream(id)
			}
			return
		}
		if !c.enqueue(ServerFrame{Type: FrameEvent, ID: id, Event: &ev}) {
			return
		}
	}
}

func (c *Client) unsubscribe(id string) {
	if stream := c.removeStream(id); stream != nil {
		stream.Close()
	}
}

func (c *Client) removeStream(id string) *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	stream := c.streams[id]
	delete(c.streams, id)
	return stream
}

// enqueue queues a frame; a full queue means the peer is not reading, so the
// connection is torn down
func (c *Client) enqueue(frame ServerFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("marshal realtime frame", "error", err)
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("websocket send buffer full, closing connection", "user_id", c.userID)
		c.cancel()
		return false
	}
}

// WritePump pumps queued frames to the WebSocket connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// shutdown closes every stream and waits for forwarders to exit
func (c *Client) shutdown() {
	c.cancel()
	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[string]*Stream)
	c.mu.Unlock()
	for _, s := range streams {
		s.Close()
	}
	c.wg.Wait()
	_ = c.conn.Close()
}

// publicError hides internal failures from the peer
func publicError(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound):
		return err.Error()
	default:
		return "internal error"
	}
}
