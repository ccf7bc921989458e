// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// ErrDuplicate is returned (wrapped) when an insert violates a uniqueness
// constraint, such as a second account for one email or a second membership
// row for the same (project, user) pair.
var ErrDuplicate = errors.New("duplicate record")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Repositories bound to the connection, each call auto-committed.
	Repositories

	// InTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise. Repositories passed to fn must
	// not escape it.
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// Repositories groups the repository accessors.
type Repositories interface {
	Users() UserRepository
	Projects() ProjectRepository
	Members() MemberRepository
	Tasks() TaskRepository
	Messages() MessageRepository
	Notifications() NotificationRepository
	Settings() SettingsRepository
	Tokens() TokenRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	// Owner returns the creator of the project, or "" if it does not exist.
	Owner(ctx context.Context, id string) (string, error)
	// SetStatus writes the derived status and bumps updated_at.
	SetStatus(ctx context.Context, id string, status models.ProjectStatus, at time.Time) error
	// ListForUser returns projects the user created or is a member of,
	// most recently updated first.
	ListForUser(ctx context.Context, userID string) ([]*models.ProjectSummary, error)
	List(ctx context.Context) ([]*models.ProjectSummary, error)
}

// MemberRepository defines operations on project membership rows.
type MemberRepository interface {
	Add(ctx context.Context, projectID, userID string, role models.MemberRole, joinedAt time.Time) error
	// Remove deletes a membership row and reports whether one existed.
	Remove(ctx context.Context, projectID, userID string) (bool, error)
	// GetRole returns the member's role, or "" if there is no row.
	GetRole(ctx context.Context, projectID, userID string) (models.MemberRole, error)
	SetRole(ctx context.Context, projectID, userID string, role models.MemberRole) error
	List(ctx context.Context, projectID string) ([]*models.ProjectMember, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

// TaskRepository defines operations for task management.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// Update writes the editable fields: title, description, assignee,
	// priority, due date and updated_at. Status and project are untouched.
	Update(ctx context.Context, task *models.Task) error
	SetStatus(ctx context.Context, id string, status models.TaskStatus, at time.Time) error
	SetPriority(ctx context.Context, id string, priority models.Priority, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*models.TaskView, error)
	ListAssignedTo(ctx context.Context, userID string) ([]*models.TaskView, error)
	// CountByProject returns the total number of tasks and the number done.
	CountByProject(ctx context.Context, projectID string) (total, done int, err error)
	// UnassignUser clears assigned_to on the user's tasks in one project.
	UnassignUser(ctx context.Context, projectID, userID string) (int64, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

// MessageRepository defines operations for project messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByProject returns the latest limit messages in chronological order.
	ListByProject(ctx context.Context, projectID string, limit int) ([]*models.Message, error)
	DeleteByTask(ctx context.Context, taskID string) error
	// DeleteTaskScoped removes messages attached to any task of the project.
	DeleteTaskScoped(ctx context.Context, projectID string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

// NotificationRepository defines operations for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead flags one of the user's notifications and reports whether it
	// was found.
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// SettingsRepository defines operations for per-user settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

// TokenRepository defines operations for refresh token management.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
