package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/completion"
	"github.com/good-yellow-bee/synergy/internal/metrics"
	"github.com/good-yellow-bee/synergy/internal/models"
)

// StatusChange reports the project status before and after a task-set
// mutation.
type StatusChange struct {
	ProjectID string               `json:"project_id"`
	Previous  models.ProjectStatus `json:"previous_status"`
	Current   models.ProjectStatus `json:"project_status"`
}

// Changed reports whether the mutation flipped the status.
func (c StatusChange) Changed() bool {
	return c.Previous != c.Current
}

// Message describes the outcome for display.
func (c StatusChange) Message(base string) string {
	if !c.Changed() {
		return base
	}
	switch c.Current {
	case models.ProjectCompleted:
		return base + " - project marked as completed"
	case models.ProjectActive:
		return base + " - project is now active again"
	}
	return base
}

// recompute must be the last write of a task-set mutation.
func (s *Service) recompute(ctx context.Context, w *work, projectID string) (StatusChange, error) {
	change := StatusChange{ProjectID: projectID}

	project, err := w.repos.Projects().GetByID(ctx, projectID)
	if err != nil {
		return change, err
	}
	if project != nil {
		change.Previous = project.Status
	}

	status, err := completion.Recompute(ctx, w.repos.Tasks(), w.repos.Projects(), projectID, s.now())
	if err != nil {
		return change, err
	}
	change.Current = status

	metrics.StatusRecomputations.WithLabelValues(string(status)).Inc()
	if change.Changed() {
		metrics.StatusTransitions.WithLabelValues(string(change.Previous), string(change.Current)).Inc()
		s.log.WithFields(logrus.Fields{
			"project_id": projectID,
			"from":       change.Previous,
			"to":         change.Current,
		}).Info("project status changed")
	}
	return change, nil
}
