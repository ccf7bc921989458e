// Package access evaluates per-project authorization from current membership
// state. Nothing is cached: every call reads the store.
package access

import (
	"context"
	"fmt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// Source resolves the two facts every predicate is built from.
type Source interface {
	// ProjectOwner returns the project's creator, or "" if the project does
	// not exist.
	ProjectOwner(ctx context.Context, projectID string) (string, error)
	// MemberRole returns the user's role in the project, or "" if the user
	// has no membership row.
	MemberRole(ctx context.Context, projectID, userID string) (models.MemberRole, error)
}

// Checker evaluates authorization predicates against a Source.
type Checker struct {
	src Source
}

// New creates a Checker.
func New(src Source) *Checker {
	return &Checker{src: src}
}

// HasAccess reports whether userID created the project or holds any
// membership role in it. Task access is access to the parent project.
func (c *Checker) HasAccess(ctx context.Context, userID, projectID string) (bool, error) {
	isCreator, err := c.isCreator(ctx, userID, projectID)
	if err != nil || isCreator {
		return isCreator, err
	}

	role, err := c.role(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// HasAdminAccess reports whether userID created the project or holds the
// admin role in it.
func (c *Checker) HasAdminAccess(ctx context.Context, userID, projectID string) (bool, error) {
	isCreator, err := c.isCreator(ctx, userID, projectID)
	if err != nil || isCreator {
		return isCreator, err
	}

	role, err := c.role(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	return role == models.MemberRoleAdmin, nil
}

// CanDeleteTask reports whether userID may delete task: its creator, the
// project creator, or a project admin.
func (c *Checker) CanDeleteTask(ctx context.Context, userID string, task *models.Task) (bool, error) {
	if task == nil || userID == "" {
		return false, nil
	}
	if task.CreatedBy == userID {
		return true, nil
	}
	return c.HasAdminAccess(ctx, userID, task.ProjectID)
}

// CanDeleteProject reports whether userID is the exact creator of the
// project. Admin members do not qualify.
func (c *Checker) CanDeleteProject(ctx context.Context, userID, projectID string) (bool, error) {
	return c.isCreator(ctx, userID, projectID)
}

// isCreator is evaluated against projects.created_by alone, independent of
// any membership row.
func (c *Checker) isCreator(ctx context.Context, userID, projectID string) (bool, error) {
	if userID == "" || projectID == "" {
		return false, nil
	}
	owner, err := c.src.ProjectOwner(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("resolve project owner: %w", err)
	}
	return owner != "" && owner == userID, nil
}

func (c *Checker) role(ctx context.Context, userID, projectID string) (models.MemberRole, error) {
	role, err := c.src.MemberRole(ctx, projectID, userID)
	if err != nil {
		return "", fmt.Errorf("resolve member role: %w", err)
	}
	return role, nil
}
