// Package policy implements authorization checks for project-scoped
// operations. Every mutation on a project or its tasks must pass through
// the membership policy before touching the store.
package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/repository"
)

// MembershipPolicy answers whether a user may act on a project.
type MembershipPolicy struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewMembershipPolicy creates a membership policy backed by the repository.
func NewMembershipPolicy(repo *repository.Repository, logger *slog.Logger) *MembershipPolicy {
	if logger == nil {
		logger = slog.Default()
	}

	return &MembershipPolicy{
		repo:   repo,
		logger: logger.With("component", "policy"),
	}
}

// IsMember reports whether the user has a membership record for the project.
// A store failure is returned as an error, never folded into a false result.
func (p *MembershipPolicy) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	ok, err := p.repo.MembershipExists(ctx, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return ok, nil
}

// Authorize verifies that the user is a member of the project and returns
// an authorization error when they are not.
func (p *MembershipPolicy) Authorize(ctx context.Context, userID, projectID string) error {
	ok, err := p.IsMember(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Debug("membership check denied", "user_id", userID, "project_id", projectID)
		return fmt.Errorf("%w: user %s is not a member of project %s", apperrors.ErrNotAuthorized, userID, projectID)
	}

	return nil
}
