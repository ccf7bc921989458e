package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type sqliteSettingsRepo struct {
	db dbtx
}

func (r *sqliteSettingsRepo) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	s := &models.UserSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, notifications_enabled, email_notifications, created_at, updated_at
		FROM user_settings WHERE user_id = ?
	`, userID).Scan(&s.UserID, &s.NotificationsEnabled, &s.EmailNotifications, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	return s, nil
}

// Upsert inserts the settings row or overwrites both flags. created_at is
// kept from the first insert.
func (r *sqliteSettingsRepo) Upsert(ctx context.Context, s *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, notifications_enabled, email_notifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			notifications_enabled = excluded.notifications_enabled,
			email_notifications = excluded.email_notifications,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.NotificationsEnabled, s.EmailNotifications, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
