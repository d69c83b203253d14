package repository

import (
	"context"
	"fmt"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
)

// CreateActivityLog appends an activity log entry. Entries are never
// updated or deleted afterward.
func (r *Repository) CreateActivityLog(ctx context.Context, entry *model.ActivityLogEntry) error {
	if err := r.store.Create(ctx, CollectionActivityLogs, entry); err != nil {
		return fmt.Errorf("failed to create activity log entry: %w", err)
	}
	return nil
}

// ListActivityLogsByProject returns a project's activity log entries,
// most recent first, capped at limit.
func (r *Repository) ListActivityLogsByProject(ctx context.Context, projectID string, limit int) ([]*model.ActivityLogEntry, error) {
	q := platform.Query{
		Filters: []platform.Filter{{Field: "projectId", Value: projectID}},
		Sort:    "-createdAt",
		Limit:   limit,
	}

	var entries []*model.ActivityLogEntry
	if err := r.store.List(ctx, CollectionActivityLogs, q, &entries); err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return entries, nil
}
