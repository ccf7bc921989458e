package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteProjectRepo struct {
	db dbtx
}

const projectColumns = `p.id, p.name, p.description, p.color, p.created_by, p.status, p.created_at, p.updated_at`

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, color, created_by, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, project.Color, project.CreatedBy,
		project.Status, project.CreatedAt.UTC(), project.UpdatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("insert project", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	project := &models.Project{}
	err := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id).Scan(
		&project.ID, &project.Name, &project.Description, &project.Color, &project.CreatedBy,
		&project.Status, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

// Update writes name, description, color and updated_at. created_by and
// status are never touched here.
func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects SET name = ?, description = ?, color = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.Description, project.Color, project.UpdatedAt.UTC(),
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *sqliteProjectRepo) Owner(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, "SELECT created_by FROM projects WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get project owner: %w", err)
	}
	return owner, nil
}

func (r *sqliteProjectRepo) SetStatus(ctx context.Context, id string, status models.ProjectStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE projects SET status = ?, updated_at = ? WHERE id = ?",
		status, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set project status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

const projectSummaryQuery = `
	SELECT ` + projectColumns + `,
		COALESCE(u.display_name, ''),
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
		(SELECT COUNT(*) FROM project_members m WHERE m.project_id = p.id)
	FROM projects p
	LEFT JOIN users u ON u.id = p.created_by
`

func (r *sqliteProjectRepo) ListForUser(ctx context.Context, userID string) ([]*models.ProjectSummary, error) {
	query := projectSummaryQuery + `
		WHERE p.created_by = ?
			OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = ?)
		ORDER BY p.updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	return scanProjectSummaries(rows)
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.ProjectSummary, error) {
	rows, err := r.db.QueryContext(ctx, projectSummaryQuery+` ORDER BY p.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return scanProjectSummaries(rows)
}

func scanProjectSummaries(rows *sql.Rows) ([]*models.ProjectSummary, error) {
	defer rows.Close()

	var projects []*models.ProjectSummary
	for rows.Next() {
		p := &models.ProjectSummary{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Color, &p.CreatedBy,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
			&p.CreatorName, &p.TaskCount, &p.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
