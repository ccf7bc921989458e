package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

type fakePrefs struct {
	users    map[string]*models.User
	settings map[string]*models.UserSettings
}

func (f *fakePrefs) Lookup(_ context.Context, id string) (*models.User, *models.UserSettings, error) {
	return f.users[id], f.settings[id], nil
}

// recordingChannel records delivered notifications and honours one flag.
type recordingChannel struct {
	name      string
	inApp     bool
	shouldErr bool
	sent      []*models.Notification
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Wants(s *models.UserSettings) bool {
	if c.inApp {
		return s.NotificationsEnabled
	}
	return s.EmailNotifications
}

func (c *recordingChannel) Send(_ context.Context, _ *models.User, n *models.Notification) error {
	if c.shouldErr {
		return errors.New("mock send error")
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *recordingChannel) Close() error { return nil }

func newTestDispatcher(settings *models.UserSettings) (*Dispatcher, *recordingChannel, *recordingChannel) {
	prefs := &fakePrefs{
		users:    map[string]*models.User{"u1": {ID: "u1", Email: "jane.doe@gmail.com"}},
		settings: map[string]*models.UserSettings{},
	}
	if settings != nil {
		prefs.settings["u1"] = settings
	}
	d := NewDispatcherWithRateLimit(prefs, RateLimitConfig{MaxPerWindow: 5, Window: time.Hour, Enabled: true})
	inApp := &recordingChannel{name: "in_app", inApp: true}
	email := &recordingChannel{name: "email"}
	d.Register(inApp)
	d.Register(email)
	return d, inApp, email
}

func TestDispatcherHonoursSettings(t *testing.T) {
	tests := []struct {
		name           string
		settings       *models.UserSettings
		inApp, emailed int
	}{
		{"defaults when no row", nil, 1, 1},
		{"in-app disabled", &models.UserSettings{NotificationsEnabled: false, EmailNotifications: true}, 0, 1},
		{"email disabled", &models.UserSettings{NotificationsEnabled: true, EmailNotifications: false}, 1, 0},
		{"all disabled", &models.UserSettings{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, inApp, email := newTestDispatcher(tt.settings)

			err := d.Notify(context.Background(), &models.Notification{UserID: "u1", Title: "Hi"})
			if err != nil {
				t.Fatalf("Notify() error = %v", err)
			}
			if len(inApp.sent) != tt.inApp || len(email.sent) != tt.emailed {
				t.Errorf("delivered in_app=%d email=%d; want %d, %d",
					len(inApp.sent), len(email.sent), tt.inApp, tt.emailed)
			}
		})
	}
}

func TestDispatcherUnknownRecipient(t *testing.T) {
	d, _, _ := newTestDispatcher(nil)
	err := d.Notify(context.Background(), &models.Notification{UserID: "ghost"})
	if !errors.Is(err, ErrUnknownRecipient) {
		t.Errorf("error = %v, want ErrUnknownRecipient", err)
	}
}

func TestDispatcherContinuesPastFailingChannel(t *testing.T) {
	d, inApp, email := newTestDispatcher(nil)
	email.shouldErr = true

	err := d.Notify(context.Background(), &models.Notification{UserID: "u1"})
	if err == nil {
		t.Fatal("expected error from failing channel")
	}
	if len(inApp.sent) != 1 {
		t.Error("in-app delivery should still happen")
	}
}

func TestDispatcherRateLimited(t *testing.T) {
	d, inApp, _ := newTestDispatcher(nil)

	for i := 0; i < 5; i++ {
		if err := d.Notify(context.Background(), &models.Notification{UserID: "u1"}); err != nil {
			t.Fatalf("Notify() #%d error = %v", i+1, err)
		}
	}
	if err := d.Notify(context.Background(), &models.Notification{UserID: "u1"}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("6th Notify() error = %v, want ErrRateLimited", err)
	}
	if len(inApp.sent) != 5 {
		t.Errorf("delivered = %d, want 5", len(inApp.sent))
	}
	if d.RateLimitStats().Dropped != 1 {
		t.Error("dropped count should be 1")
	}
}

func TestDispatcherClose(t *testing.T) {
	d, _, _ := newTestDispatcher(nil)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := d.Get("in_app"); ok {
		t.Error("channels should be cleared after Close")
	}
}
