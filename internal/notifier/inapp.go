package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// InAppChannel persists notifications for display in the client.
type InAppChannel struct {
	repo storage.NotificationRepository
	now  func() time.Time
}

// NewInAppChannel creates an in-app channel backed by repo.
func NewInAppChannel(repo storage.NotificationRepository) *InAppChannel {
	return &InAppChannel{repo: repo, now: time.Now}
}

// Name returns "in_app".
func (c *InAppChannel) Name() string { return "in_app" }

// Wants honours notifications_enabled.
func (c *InAppChannel) Wants(s *models.UserSettings) bool { return s.NotificationsEnabled }

// Send stores a copy of n addressed to the recipient.
func (c *InAppChannel) Send(ctx context.Context, recipient *models.User, n *models.Notification) error {
	row := *n
	row.ID = uuid.New().String()
	row.UserID = recipient.ID
	row.Read = false
	if row.Kind == "" {
		row.Kind = models.NotificationInfo
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = c.now()
	}

	if err := c.repo.Create(ctx, &row); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Close is a no-op.
func (c *InAppChannel) Close() error { return nil }

// StorePreferences resolves recipients from the database.
type StorePreferences struct {
	Store storage.Repositories
}

// Lookup implements Preferences.
func (p StorePreferences) Lookup(ctx context.Context, userID string) (*models.User, *models.UserSettings, error) {
	user, err := p.Store.Users().GetByID(ctx, userID)
	if err != nil || user == nil {
		return nil, nil, err
	}
	settings, err := p.Store.Settings().Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, settings, nil
}
