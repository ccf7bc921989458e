package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteTaskRepo struct {
	db dbtx
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.assigned_to, t.created_by,
	t.status, t.priority, t.due_date, t.created_at, t.updated_at`

func scanTask(s scanner, task *models.Task, extra ...any) error {
	var assigned sql.NullString
	var due sql.NullTime
	dest := []any{
		&task.ID, &task.ProjectID, &task.Title, &task.Description, &assigned, &task.CreatedBy,
		&task.Status, &task.Priority, &due, &task.CreatedAt, &task.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	task.AssignedTo = assigned.String
	if due.Valid {
		d := due.Time
		task.DueDate = &d
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, title, description, assigned_to, created_by,
			status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Title, task.Description, nullString(task.AssignedTo), task.CreatedBy,
		task.Status, task.Priority, nullTime(task.DueDate), task.CreatedAt.UTC(), task.UpdatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("insert task", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id), task)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, assigned_to = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, nullString(task.AssignedTo), task.Priority,
		nullTime(task.DueDate), task.UpdatedAt.UTC(), task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(result, "task", task.ID)
}

func (r *sqliteTaskRepo) SetStatus(ctx context.Context, id string, status models.TaskStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		status, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return expectRow(result, "task", id)
}

func (r *sqliteTaskRepo) SetPriority(ctx context.Context, id string, priority models.Priority, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET priority = ?, updated_at = ? WHERE id = ?",
		priority, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set task priority: %w", err)
	}
	return expectRow(result, "task", id)
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(result, "task", id)
}

const taskViewQuery = `
	SELECT ` + taskColumns + `,
		p.name, p.color, COALESCE(a.display_name, ''), COALESCE(c.display_name, '')
	FROM tasks t
	INNER JOIN projects p ON p.id = t.project_id
	LEFT JOIN users a ON a.id = t.assigned_to
	LEFT JOIN users c ON c.id = t.created_by
`

// ListByProject returns the project's tasks, newest first.
func (r *sqliteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*models.TaskView, error) {
	rows, err := r.db.QueryContext(ctx, taskViewQuery+` WHERE t.project_id = ? ORDER BY t.created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by project: %w", err)
	}
	return scanTaskViews(rows)
}

// ListAssignedTo returns tasks assigned to the user across all projects,
// in storage order. Callers sort for display.
func (r *sqliteTaskRepo) ListAssignedTo(ctx context.Context, userID string) ([]*models.TaskView, error) {
	rows, err := r.db.QueryContext(ctx, taskViewQuery+` WHERE t.assigned_to = ? ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return scanTaskViews(rows)
}

func scanTaskViews(rows *sql.Rows) ([]*models.TaskView, error) {
	defer rows.Close()

	var tasks []*models.TaskView
	for rows.Next() {
		v := &models.TaskView{}
		if err := scanTask(rows, &v.Task, &v.ProjectName, &v.ProjectColor, &v.AssignedName, &v.CreatorName); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, v)
	}
	return tasks, rows.Err()
}

func (r *sqliteTaskRepo) CountByProject(ctx context.Context, projectID string) (int, int, error) {
	var total, done int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE project_id = ?
	`, projectID).Scan(&total, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("count project tasks: %w", err)
	}
	return total, done, nil
}

func (r *sqliteTaskRepo) UnassignUser(ctx context.Context, projectID, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET assigned_to = NULL WHERE project_id = ? AND assigned_to = ?",
		projectID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("unassign tasks: %w", err)
	}
	return result.RowsAffected()
}

func (r *sqliteTaskRepo) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	return nil
}

func expectRow(result sql.Result, kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
