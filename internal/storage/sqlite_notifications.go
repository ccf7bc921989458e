package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteNotificationRepo struct {
	db dbtx
}

func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, type, read, project_id, task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read,
		nullString(n.ProjectID), nullString(n.TaskID), n.CreatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("insert notification", err)
	}
	return nil
}

// ListForUser returns the newest notifications first, with the project name
// and task title when the referenced rows still exist.
func (r *sqliteNotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	query := `
		SELECT n.id, n.user_id, n.title, n.message, n.type, n.read, n.project_id, n.task_id, n.created_at,
			COALESCE(p.name, ''), COALESCE(t.title, '')
		FROM notifications n
		LEFT JOIN projects p ON p.id = n.project_id
		LEFT JOIN tasks t ON t.id = n.task_id
		WHERE n.user_id = ?
		ORDER BY n.created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var projectID, taskID sql.NullString
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &projectID, &taskID, &n.CreatedAt,
			&n.ProjectName, &n.TaskTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ProjectID = projectID.String
		n.TaskID = taskID.String
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *sqliteNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0", userID,
	).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *sqliteNotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.RowsAffected()
}
