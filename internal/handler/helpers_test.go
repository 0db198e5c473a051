package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/httputil"
)

const (
	callerID  = "0b9e5a57-51f4-4a8e-9f0e-0000000000a1"
	projectID = "4c1f7a7e-3c8b-4d07-9a55-000000000001"
	taskID    = "a3d2c9b1-7f3e-4b6a-8c2d-000000000010"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes one request through a mux so path values resolve
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	r = httputil.WithUserID(r, callerID)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(dest))
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.Validation("title is required"), http.StatusBadRequest},
		{"not found", domain.NotFound("task", "x"), http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", domain.Forbidden("viewers cannot edit"), http.StatusForbidden},
		{"structured conflict", &domain.ConflictError{Message: "dup", ResourceType: "member", ResourceID: "u"}, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("graph: %w", domain.ErrConflict), http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			handleError(w, r, testLogger(), tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})
	}
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	w := httptest.NewRecorder()
	handleError(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), logger, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, buf.String(), "password authentication failed")
}

func TestPathParam_RejectsMalformedUUID(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PathParam(w, r, "id", "Task ID"); ok {
			w.WriteHeader(http.StatusNoContent)
		}
	}

	w := serve(t, "GET /api/tasks/{id}", h, http.MethodGet, "/api/tasks/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Task ID must be a valid UUID")

	w = serve(t, "GET /api/tasks/{id}", h, http.MethodGet, "/api/tasks/"+taskID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDecode_RejectsUnknownFieldsAndOversizedBodies(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		if decode(w, r, &body) {
			w.WriteHeader(http.StatusNoContent)
		}
	}

	w := serve(t, "POST /x", h, http.MethodPost, "/x", `{"titel":"typo"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := `{"title":"` + strings.Repeat("a", 2<<20) + `"}`
	w = serve(t, "POST /x", h, http.MethodPost, "/x", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(t, "POST /x", h, http.MethodPost, "/x", `{"title":"ok"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
