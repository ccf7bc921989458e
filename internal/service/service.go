// Package service implements Synergy's operations. Every call takes the
// acting user's id explicitly; an empty actor is Unauthenticated.
//
// Each mutating operation runs as one transaction: the authorization check,
// the domain writes and, for task-set changes, the project status
// recomputation either all commit or all roll back. Notifications decided
// during the transaction are dispatched only after commit.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/access"
	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/metrics"
	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// Notifier delivers a notification to n.UserID. Delivery preferences are the
// notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// Config tunes service behaviour.
type Config struct {
	// InviteDomain is the only email domain accepted when adding members.
	InviteDomain string
	// MessageHistory is how many recent messages project detail returns.
	MessageHistory int
	// NotificationLimit is how many notifications a listing returns.
	NotificationLimit int
	// BcryptCost is the password hashing cost.
	BcryptCost int
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.InviteDomain == "" {
		c.InviteDomain = "gmail.com"
	}
	if c.MessageHistory == 0 {
		c.MessageHistory = 50
	}
	if c.NotificationLimit == 0 {
		c.NotificationLimit = 20
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
}

// Service is the entry point for all domain operations.
type Service struct {
	store    storage.Storage
	notifier Notifier
	cfg      Config
	now      func() time.Time
	log      *logrus.Logger
}

// New creates a Service. notifier may be nil to disable notifications.
func New(store storage.Storage, notifier Notifier, cfg Config) *Service {
	cfg.SetDefaults()
	return &Service{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logging.Logger,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// work is the state of one unit of work.
type work struct {
	repos  storage.Repositories
	access *access.Checker
	outbox []*models.Notification
}

func (w *work) notify(n *models.Notification) {
	w.outbox = append(w.outbox, n)
}

// run executes fn in a transaction and dispatches queued notifications once
// it has committed.
func (s *Service) run(ctx context.Context, op string, fn func(w *work) error) error {
	var w *work
	err := s.store.InTx(ctx, func(r storage.Repositories) error {
		w = &work{repos: r, access: access.ForRepos(r)}
		return fn(w)
	})
	if err != nil {
		err = storeErr(op, err)
		if KindOf(err) == KindStore {
			metrics.StorageErrors.WithLabelValues(op).Inc()
			s.log.WithField("op", op).WithError(err).Error("unit of work failed")
		}
		return err
	}

	s.dispatch(ctx, w.outbox)
	return nil
}

func (s *Service) dispatch(ctx context.Context, outbox []*models.Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range outbox {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id": n.UserID,
				"title":   n.Title,
			}).WithError(err).Warn("notification not delivered")
		}
	}
}

func requireActor(actor string) error {
	if actor == "" {
		return &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	}
	return nil
}

// errProjectDenied is reported for both missing and inaccessible projects.
const errProjectDenied = "project not found or access denied"

const errTaskDenied = "task not found or access denied"

func (s *Service) deny(predicate, actor, projectID string) {
	metrics.AccessDenied.WithLabelValues(predicate).Inc()
	s.log.WithFields(logrus.Fields{
		"predicate":  predicate,
		"user_id":    actor,
		"project_id": projectID,
	}).Info("access denied")
}

func (s *Service) requireAccess(ctx context.Context, w *work, actor, projectID string) error {
	ok, err := w.access.HasAccess(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if !ok {
		s.deny("access", actor, projectID)
		return denied(errProjectDenied)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, w *work, actor, projectID string) error {
	ok, err := w.access.HasAdminAccess(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if !ok {
		s.deny("admin", actor, projectID)
		return denied("only project creators and admins can do this")
	}
	return nil
}

// loadTask returns the task when actor can access its project. A missing
// task and an inaccessible one produce the same error.
func (s *Service) loadTask(ctx context.Context, w *work, actor, taskID string) (*models.Task, error) {
	task, err := w.repos.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		s.deny("access", actor, "")
		return nil, denied(errTaskDenied)
	}
	if err := s.requireAccess(ctx, w, actor, task.ProjectID); err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return nil, denied(errTaskDenied)
		}
		return nil, err
	}
	return task, nil
}
