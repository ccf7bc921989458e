package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteMessageRepo struct {
	db dbtx
}

func (r *sqliteMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, project_id, task_id, user_id, content, message_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.ProjectID, nullString(msg.TaskID), msg.UserID, msg.Content, msg.Type,
		msg.CreatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("insert message", err)
	}
	return nil
}

func (r *sqliteMessageRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.project_id, m.task_id, m.user_id, m.content, m.message_type, m.created_at,
			COALESCE(u.display_name, '')
		FROM messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY m.created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		m := &models.Message{}
		var taskID sql.NullString
		err := rows.Scan(&m.ID, &m.ProjectID, &taskID, &m.UserID, &m.Content, &m.Type, &m.CreatedAt, &m.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.TaskID = taskID.String
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *sqliteMessageRepo) DeleteByTask(ctx context.Context, taskID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("delete task messages: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) DeleteTaskScoped(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM messages WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)",
		projectID,
	)
	if err != nil {
		return fmt.Errorf("delete task-scoped messages: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("delete project messages: %w", err)
	}
	return nil
}
