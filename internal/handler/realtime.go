package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"teamhub/internal/handler/sse"
	"teamhub/internal/httputil"
	"teamhub/internal/realtime"
)

// RealtimeHandler exposes the change feed over WebSocket and SSE
type RealtimeHandler struct {
	feed      *realtime.Feed
	upgrader  websocket.Upgrader
	sseConfig *sse.Config
	// serverCtx outlives requests; hijacked sockets close when it ends
	serverCtx context.Context
	logger    *slog.Logger
}

// NewRealtimeHandler creates the handler. allowedOrigins mirrors the CORS
// allow-list; browsers do not apply CORS to WebSocket upgrades.
func NewRealtimeHandler(serverCtx context.Context, feed *realtime.Feed, allowedOrigins []string, sseConfig *sse.Config, logger *slog.Logger) *RealtimeHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSpace(o)] = true
	}

	return &RealtimeHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		sseConfig: sseConfig,
		serverCtx: serverCtx,
		logger:    logger,
	}
}

// ServeWS upgrades to a WebSocket carrying subscribe/unsubscribe frames
// GET /api/realtime/ws?access_token=...
func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	h.logger.Debug("websocket connected", "user_id", userID)
	realtime.NewClient(h.serverCtx, h.feed, conn, userID, h.logger).Run()
	h.logger.Debug("websocket disconnected", "user_id", userID)
}

// ServeSSE streams one subscription as server-sent events
// GET /api/realtime/stream?tables=tasks,messages&project_id=...&since=...
func (h *RealtimeHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	req, err := parseSubscribeQuery(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.serverCtx, cancel)
	defer stop()

	stream, err := h.feed.Open(ctx, userID, req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	defer stream.Close()

	sw, err := sse.NewWriter(w, h.sseConfig)
	if err != nil {
		h.logger.Error("sse writer unavailable", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	keepAliveDone := sse.KeepAlive(ctx, sw, h.sseConfig.KeepAliveInterval, h.logger)
	go func() {
		<-keepAliveDone
		cancel()
	}()

	subscribed := struct {
		realtime.Filter
		Truncated bool `json:"truncated,omitempty"`
	}{stream.Filter(), stream.Truncated()}
	if err := sw.WriteEvent("", "subscribed", subscribed); err != nil {
		return
	}

	for {
		ev, ok, err := stream.Next(ctx)
		if !ok {
			if errors.Is(err, realtime.ErrStreamLagged) {
				_ = sw.WriteEvent("", "closed", map[string]string{"reason": "lagging"})
			}
			return
		}

		id := ""
		if ev.Seq > 0 {
			id = strconv.FormatInt(ev.Seq, 10)
		}
		if err := sw.WriteEvent(id, "change", ev); err != nil {
			h.logger.Debug("sse write failed", "user_id", userID, "error", err)
			return
		}
	}
}

func parseSubscribeQuery(r *http.Request) (realtime.SubscribeRequest, error) {
	q := r.URL.Query()
	req := realtime.SubscribeRequest{ProjectID: q.Get("project_id")}

	if raw := q.Get("tables"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				req.Tables = append(req.Tables, t)
			}
		}
	}

	since, err := httputil.QueryTime(r, "since")
	if err != nil {
		return req, err
	}
	req.Since = since
	return req, nil
}
