// Package completion derives a project's status from its tasks.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// Counter counts a project's tasks.
type Counter interface {
	CountByProject(ctx context.Context, projectID string) (total, done int, err error)
}

// Writer persists a project's derived status.
type Writer interface {
	SetStatus(ctx context.Context, id string, status models.ProjectStatus, at time.Time) error
}

// Derive returns completed iff there is at least one task and all of them
// are done.
func Derive(total, done int) models.ProjectStatus {
	if total > 0 && total == done {
		return models.ProjectCompleted
	}
	return models.ProjectActive
}

// Recompute counts the project's tasks and writes the derived status. The
// write happens even when the status is unchanged so updated_at always moves.
// Call it inside the transaction that mutated the task set, after the
// mutation.
func Recompute(ctx context.Context, c Counter, w Writer, projectID string, now time.Time) (models.ProjectStatus, error) {
	total, done, err := c.CountByProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("count tasks: %w", err)
	}

	status := Derive(total, done)
	if err := w.SetStatus(ctx, projectID, status, now); err != nil {
		return "", fmt.Errorf("write project status: %w", err)
	}
	return status, nil
}
