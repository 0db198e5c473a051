package models

import (
	"encoding/json"
	"time"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences represents user-specific settings.
// All preferences are stored in a single JSONB column with namespaced structure:
// {ui, notifications, dashboard, status_message}
type UserPreferences struct {
	UserID      string    `json:"user_id"`
	Preferences JSONMap   `json:"preferences"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UIPreferences represents the ui namespace in preferences
type UIPreferences struct {
	Theme       string `json:"theme"` // "light", "dark", "auto"
	CompactMode *bool  `json:"compact_mode"`
	Language    string `json:"language,omitempty"`
}

// NotificationPreferences represents the notifications namespace in preferences
type NotificationPreferences struct {
	TaskAssigned  *bool `json:"task_assigned"`
	Mentions      *bool `json:"mentions"`
	MeetingInvite *bool `json:"meeting_invite"`
	EmailDigest   *bool `json:"email_digest"`
}

// DashboardPreferences represents the dashboard namespace in preferences
type DashboardPreferences struct {
	DefaultProjectID *string  `json:"default_project_id"`
	HiddenWidgets    []string `json:"hidden_widgets"`
}

// OptionalStatusMessage tracks tri-state semantics for status_message updates (RFC 7396 PATCH).
// The handler maps it from httputil.OptionalString.
type OptionalStatusMessage struct {
	Present bool
	Value   *string
}

// UpdatePreferencesRequest supports partial updates - only provided namespaces change
type UpdatePreferencesRequest struct {
	UI            *UIPreferences           `json:"ui"`
	Notifications *NotificationPreferences `json:"notifications"`
	Dashboard     *DashboardPreferences    `json:"dashboard"`
	StatusMessage OptionalStatusMessage    // No json tag - mapped from handler DTO
}

// GetUI extracts the ui namespace from preferences
func (up *UserPreferences) GetUI() (*UIPreferences, error) {
	ui := &UIPreferences{Theme: "light"}
	if err := up.getNamespace("ui", ui); err != nil {
		return nil, err
	}
	return ui, nil
}

// GetNotifications extracts the notifications namespace from preferences
func (up *UserPreferences) GetNotifications() (*NotificationPreferences, error) {
	n := &NotificationPreferences{}
	if err := up.getNamespace("notifications", n); err != nil {
		return nil, err
	}
	return n, nil
}

// WantsNotification reports whether a notification type is enabled. Unset means enabled.
func (n *NotificationPreferences) WantsNotification(notificationType string) bool {
	var flag *bool
	switch notificationType {
	case NotificationTaskAssigned:
		flag = n.TaskAssigned
	case NotificationMention:
		flag = n.Mentions
	case NotificationMeetingInvite:
		flag = n.MeetingInvite
	}
	return flag == nil || *flag
}

// SetNamespace replaces one namespace with the JSON form of value
func (up *UserPreferences) SetNamespace(name string, value interface{}) error {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	up.Preferences[name] = m
	return nil
}

// SetStatusMessage sets or clears status_message
func (up *UserPreferences) SetStatusMessage(msg *string) {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}
	if msg == nil {
		up.Preferences["status_message"] = nil
		return
	}
	up.Preferences["status_message"] = *msg
}

// getNamespace decodes a namespace into dest; a missing namespace leaves dest untouched
func (up *UserPreferences) getNamespace(name string, dest interface{}) error {
	if up.Preferences == nil {
		return nil
	}
	raw, ok := up.Preferences[name]
	if !ok || raw == nil {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
