package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminClient_CreateUser(t *testing.T) {
	var got createUserPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		assert.Equal(t, "service", r.Header.Get("apikey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@example.com"}`))
	}))
	defer srv.Close()

	c := NewAdminClient(srv.URL, "service")
	id, err := c.CreateUser(context.Background(), NewAuthUser{Email: "ana@example.com", Password: "pw", FullName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.True(t, got.EmailConfirm)
	assert.Equal(t, "Ana", got.UserMetadata["full_name"])
}

func TestAdminClient_DeleteUserByEmail(t *testing.T) {
	var deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"users":[{"id":"u-1","email":"ana@example.com"}]}`))
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewAdminClient(srv.URL, "service")
	require.NoError(t, c.DeleteUserByEmail(context.Background(), "ana@example.com"))
	require.NoError(t, c.DeleteUserByEmail(context.Background(), "nobody@example.com"))
	assert.Equal(t, []string{"/auth/v1/admin/users/u-1"}, deleted)
}

func TestAdminClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewAdminClient(srv.URL, "service").CreateUser(context.Background(), NewAuthUser{Email: "x@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
