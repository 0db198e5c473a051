package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/httputil"
)

type stubVerifier struct {
	valid map[string]string // token -> user id
}

func (s stubVerifier) VerifyToken(token string) (*models.SupabaseClaims, error) {
	id, ok := s.valid[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &models.SupabaseClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: id}, Role: "authenticated"}, nil
}

func (s stubVerifier) Close() error { return nil }

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, httputil.GetUserID(r))
	})
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(stubVerifier{valid: map[string]string{"good": "user-1"}})(echoUser())

	tests := []struct {
		name     string
		method   string
		target   string
		header   string
		wantCode int
		wantBody string
	}{
		{"bearer header", http.MethodGet, "/api/projects", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", http.MethodGet, "/api/projects", "bearer good", http.StatusOK, "user-1"},
		{"missing token", http.MethodGet, "/api/projects", "", http.StatusUnauthorized, ""},
		{"bad token", http.MethodGet, "/api/projects", "Bearer bad", http.StatusUnauthorized, ""},
		{"basic scheme", http.MethodGet, "/api/projects", "Basic good", http.StatusUnauthorized, ""},
		{"query token on realtime", http.MethodGet, "/api/realtime/stream?access_token=good", "", http.StatusOK, "user-1"},
		{"query token elsewhere", http.MethodGet, "/api/projects?access_token=good", "", http.StatusUnauthorized, ""},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"preflight passes", http.MethodOptions, "/api/projects", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecovery_RepanicsAbortHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/todos", nil))

	require.Equal(t, http.StatusTeapot, w.Code)
	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/api/todos"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestLogging_ForwardsFlush(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var flushed bool
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		f.Flush()
		flushed = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/stream", nil))
	assert.True(t, flushed)
	assert.True(t, w.Flushed)
}
