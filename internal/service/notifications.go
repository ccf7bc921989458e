package service

import (
	"context"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// NotificationList is the latest notifications plus the unread total.
type NotificationList struct {
	Items  []*models.Notification `json:"notifications"`
	Unread int                    `json:"unread_count"`
}

// ListNotifications returns actor's most recent notifications.
func (s *Service) ListNotifications(ctx context.Context, actor string) (*NotificationList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	list := &NotificationList{}
	err := s.run(ctx, "list notifications", func(w *work) error {
		var err error
		if list.Items, err = w.repos.Notifications().ListForUser(ctx, actor, s.cfg.NotificationLimit); err != nil {
			return err
		}
		list.Unread, err = w.repos.Notifications().CountUnread(ctx, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead flags one of actor's notifications as read. Another
// user's notification is reported as not found.
func (s *Service) MarkNotificationRead(ctx context.Context, actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.run(ctx, "mark notification read", func(w *work) error {
		ok, err := w.repos.Notifications().MarkRead(ctx, id, actor)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("notification not found")
		}
		return nil
	})
}

// MarkAllNotificationsRead flags all of actor's notifications and returns
// how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	var n int64
	err := s.run(ctx, "mark all notifications read", func(w *work) error {
		var err error
		n, err = w.repos.Notifications().MarkAllRead(ctx, actor)
		return err
	})
	return n, err
}

// GetSettings returns actor's settings, creating the defaults on first use.
func (s *Service) GetSettings(ctx context.Context, actor string) (*models.UserSettings, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var settings *models.UserSettings
	err := s.run(ctx, "get settings", func(w *work) error {
		var err error
		settings, err = s.loadSettings(ctx, w, actor)
		return err
	})
	return settings, err
}

func (s *Service) loadSettings(ctx context.Context, w *work, userID string) (*models.UserSettings, error) {
	settings, err := w.repos.Settings().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}
	settings = models.DefaultSettings(userID)
	now := s.now()
	settings.CreatedAt, settings.UpdatedAt = now, now
	if err := w.repos.Settings().Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ToggleNotifications flips the in-app notification flag.
func (s *Service) ToggleNotifications(ctx context.Context, actor string) (*models.UserSettings, error) {
	return s.updateSettings(ctx, actor, "toggle notifications", func(st *models.UserSettings) {
		st.NotificationsEnabled = !st.NotificationsEnabled
	})
}

// SetEmailNotifications sets the email notification flag.
func (s *Service) SetEmailNotifications(ctx context.Context, actor string, enabled bool) (*models.UserSettings, error) {
	return s.updateSettings(ctx, actor, "set email notifications", func(st *models.UserSettings) {
		st.EmailNotifications = enabled
	})
}

func (s *Service) updateSettings(ctx context.Context, actor, op string, change func(*models.UserSettings)) (*models.UserSettings, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var settings *models.UserSettings
	err := s.run(ctx, op, func(w *work) error {
		var err error
		if settings, err = s.loadSettings(ctx, w, actor); err != nil {
			return err
		}
		change(settings)
		settings.UpdatedAt = s.now()
		return w.repos.Settings().Upsert(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
