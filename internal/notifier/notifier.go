// Package notifier delivers user notifications over in-app and email
// channels, honouring each user's preferences.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/metrics"
	"github.com/good-yellow-bee/synergy/internal/models"
)

// Channel is one delivery route.
type Channel interface {
	// Name returns the channel name (e.g., "in_app", "email").
	Name() string
	// Wants reports whether the recipient's settings allow this channel.
	Wants(settings *models.UserSettings) bool
	// Send delivers n to the recipient.
	Send(ctx context.Context, recipient *models.User, n *models.Notification) error
	// Close releases any resources.
	Close() error
}

// Preferences resolves a recipient and their notification settings.
type Preferences interface {
	Lookup(ctx context.Context, userID string) (*models.User, *models.UserSettings, error)
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// ErrUnknownRecipient is returned when the addressed user does not exist.
var ErrUnknownRecipient = errors.New("unknown recipient")

// Dispatcher routes notifications to every registered channel the recipient
// has enabled.
type Dispatcher struct {
	mu          sync.RWMutex
	channels    map[string]Channel
	prefs       Preferences
	rateLimiter *RateLimiter
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher(prefs Preferences) *Dispatcher {
	return NewDispatcherWithRateLimit(prefs, DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with custom rate limit configuration.
func NewDispatcherWithRateLimit(prefs Preferences, config RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		channels:    make(map[string]Channel),
		prefs:       prefs,
		rateLimiter: NewRateLimiter(config),
	}
}

// Register adds a channel to the dispatcher.
func (d *Dispatcher) Register(c Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[c.Name()] = c
}

// Get returns a channel by name.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.channels[name]
	return c, ok
}

// Notify delivers n to n.UserID on every channel the user has enabled.
// Channel failures are collected; one failing channel does not stop the
// others.
func (d *Dispatcher) Notify(ctx context.Context, n *models.Notification) error {
	user, settings, err := d.prefs.Lookup(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, n.UserID)
	}
	if settings == nil {
		settings = models.DefaultSettings(user.ID)
	}

	if d.rateLimiter != nil && !d.rateLimiter.Allow(user.ID) {
		metrics.NotificationsDropped.WithLabelValues("all", "rate_limited").Inc()
		return ErrRateLimited
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for name, c := range d.channels {
		if !c.Wants(settings) {
			metrics.NotificationsDropped.WithLabelValues(name, "disabled").Inc()
			continue
		}
		if err := c.Send(ctx, user, n); err != nil {
			metrics.NotificationsDropped.WithLabelValues(name, "error").Inc()
			logging.Logger.WithFields(logrus.Fields{
				"channel": name,
				"user_id": user.ID,
			}).WithError(err).Warn("notification delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues(name).Inc()
	}

	return errors.Join(errs...)
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.rateLimiter == nil {
		return RateLimitStats{}
	}
	return d.rateLimiter.Stats()
}

// Close closes all registered channels.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, c := range d.channels {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.channels = make(map[string]Channel)

	return errors.Join(errs...)
}
