package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrAuthUserNotFound is returned when no auth account has the given email
var ErrAuthUserNotFound = errors.New("auth user not found")

// AdminClient talks to the Supabase Auth admin API with the service role key.
// Only the seed tool uses it; request handling never holds the service key.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewAdminClient creates an admin API client for the project at supabaseURL
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    supabaseURL + "/auth/v1/admin/users",
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewAuthUser describes an account to create
type NewAuthUser struct {
	Email    string
	Password string
	FullName string
}

type createUserPayload struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersPage struct {
	Users []authUser `json:"users"`
}

// CreateUser creates a confirmed account and returns its id
func (c *AdminClient) CreateUser(ctx context.Context, u NewAuthUser) (string, error) {
	payload := createUserPayload{
		Email:        u.Email,
		Password:     u.Password,
		EmailConfirm: true,
	}
	if u.FullName != "" {
		payload.UserMetadata = map[string]any{"full_name": u.FullName}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal create user: %w", err)
	}

	var created authUser
	if err := c.do(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body), &created); err != nil {
		return "", fmt.Errorf("create auth user %s: %w", u.Email, err)
	}
	return created.ID, nil
}

// FindUserID looks an account up by email
func (c *AdminClient) FindUserID(ctx context.Context, email string) (string, error) {
	var page listUsersPage
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?per_page=1000", nil, &page); err != nil {
		return "", fmt.Errorf("list auth users: %w", err)
	}
	for _, u := range page.Users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return "", ErrAuthUserNotFound
}

// DeleteUserByEmail deletes the account with email; a missing account is not an error
func (c *AdminClient) DeleteUserByEmail(ctx context.Context, email string) error {
	id, err := c.FindUserID(ctx, email)
	if errors.Is(err, ErrAuthUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := c.do(ctx, http.MethodDelete, c.baseURL+"/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete auth user %s: %w", email, err)
	}
	return nil
}

func (c *AdminClient) do(ctx context.Context, method, url string, body io.Reader, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if dest == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
