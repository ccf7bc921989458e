package models

import "time"

// NotificationKind classifies a notification for display.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
)

// Notification is addressed to exactly one user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"type"`
	Read      bool             `json:"read"`
	ProjectID string           `json:"project_id,omitempty"`
	TaskID    string           `json:"task_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`

	ProjectName string `json:"project_name,omitempty"`
	TaskTitle   string `json:"task_title,omitempty"`
}

// UserSettings holds a user's notification preferences.
type UserSettings struct {
	UserID               string    `json:"user_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	EmailNotifications   bool      `json:"email_notifications"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultSettings returns the opt-in defaults for a new user.
func DefaultSettings(userID string) *UserSettings {
	now := time.Now()
	return &UserSettings{
		UserID:               userID,
		NotificationsEnabled: true,
		EmailNotifications:   true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
