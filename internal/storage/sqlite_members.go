package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteMemberRepo struct {
	db dbtx
}

// Add inserts a membership row. A second row for the same pair fails with
// ErrDuplicate.
func (r *sqliteMemberRepo) Add(ctx context.Context, projectID, userID string, role models.MemberRole, joinedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		projectID, userID, role, joinedAt.UTC(),
	)
	if err != nil {
		return wrapErr("add project member", err)
	}
	return nil
}

func (r *sqliteMemberRepo) Remove(ctx context.Context, projectID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove project member: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteMemberRepo) GetRole(ctx context.Context, projectID, userID string) (models.MemberRole, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get member role: %w", err)
	}
	return models.MemberRole(role), nil
}

func (r *sqliteMemberRepo) SetRole(ctx context.Context, projectID, userID string, role models.MemberRole) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?",
		role, projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("member not found: %s/%s", projectID, userID)
	}
	return nil
}

// List returns members in join order.
func (r *sqliteMemberRepo) List(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	query := `
		SELECT pm.project_id, pm.user_id, pm.role, pm.joined_at,
			u.email, u.display_name, u.first_name, u.last_name
		FROM project_members pm
		INNER JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = ?
		ORDER BY pm.joined_at, u.email
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		m := &models.ProjectMember{}
		err := rows.Scan(
			&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt,
			&m.Email, &m.DisplayName, &m.FirstName, &m.LastName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *sqliteMemberRepo) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM project_members WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("delete project members: %w", err)
	}
	return nil
}
