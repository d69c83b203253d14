package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
)

// Common errors for membership repository operations.
var (
	ErrMembershipExists = errors.New("membership already exists")
)

// MaxUserMemberships caps how many membership rows a user listing
// fetches.
const MaxUserMemberships = 100

// CreateMembership inserts a membership document. The platform keeps a
// unique index on (projectId, userId), so a concurrent duplicate comes
// back as ErrMembershipExists even when the caller checked first.
func (r *Repository) CreateMembership(ctx context.Context, membership *model.ProjectMembership) error {
	if err := r.store.Create(ctx, CollectionProjectMembers, membership); err != nil {
		if platform.IsConflict(err) {
			return ErrMembershipExists
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// MembershipExists checks whether a user has a membership record for a
// project.
func (r *Repository) MembershipExists(ctx context.Context, projectID, userID string) (bool, error) {
	q := platform.Query{
		Filters: []platform.Filter{
			{Field: "projectId", Value: projectID},
			{Field: "userId", Value: userID},
		},
		Limit: 1,
	}

	var memberships []*model.ProjectMembership
	if err := r.store.List(ctx, CollectionProjectMembers, q, &memberships); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return len(memberships) > 0, nil
}

// ListMembershipsByUser returns the user's memberships in the store's
// default order, capped at MaxUserMemberships.
func (r *Repository) ListMembershipsByUser(ctx context.Context, userID string) ([]*model.ProjectMembership, error) {
	q := platform.Query{
		Filters: []platform.Filter{{Field: "userId", Value: userID}},
		Limit:   MaxUserMemberships,
	}

	var memberships []*model.ProjectMembership
	if err := r.store.List(ctx, CollectionProjectMembers, q, &memberships); err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return memberships, nil
}

// ListMembershipsByProject returns all memberships of a project ordered
// by join time.
func (r *Repository) ListMembershipsByProject(ctx context.Context, projectID string) ([]*model.ProjectMembership, error) {
	q := platform.Query{
		Filters: []platform.Filter{{Field: "projectId", Value: projectID}},
		Sort:    "joinedAt",
	}

	var memberships []*model.ProjectMembership
	if err := r.store.List(ctx, CollectionProjectMembers, q, &memberships); err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return memberships, nil
}
