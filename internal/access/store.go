package access

import (
	"context"

	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// StoreSource adapts a storage.Repositories to Source. Bind it to the
// transaction's repositories so checks and mutations see the same state.
type StoreSource struct {
	Repos storage.Repositories
}

// ProjectOwner implements Source.
func (s StoreSource) ProjectOwner(ctx context.Context, projectID string) (string, error) {
	return s.Repos.Projects().Owner(ctx, projectID)
}

// MemberRole implements Source.
func (s StoreSource) MemberRole(ctx context.Context, projectID, userID string) (models.MemberRole, error) {
	return s.Repos.Members().GetRole(ctx, projectID, userID)
}

// ForRepos returns a Checker reading from repos.
func ForRepos(repos storage.Repositories) *Checker {
	return New(StoreSource{Repos: repos})
}
