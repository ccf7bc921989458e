package models

import "time"

// MessageTypeText is the only message type produced by the API.
const MessageTypeText = "text"

// Message is a project chat entry, optionally scoped to one task.
type Message struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	TaskID     string    `json:"task_id,omitempty"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	Type       string    `json:"message_type"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"display_name,omitempty"`
}
