// Package activity records and serves the per-project audit trail. Every
// successful mutation appends one immutable log entry, and the feed side
// exposes those entries as a paged list and as a live subscription.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/repository"
)

// Writer appends activity log entries after successful mutations.
type Writer struct {
	repo    *repository.Repository
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewWriter creates an activity writer.
func NewWriter(repo *repository.Repository, logger *slog.Logger, recorder metrics.Recorder) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Writer{
		repo:    repo,
		logger:  logger.With("component", "activity"),
		metrics: recorder,
	}
}

// Record writes a single log entry for an action performed on an entity.
// The entry is written after the mutation it describes; if the write fails
// the error propagates to the caller even though the mutation persisted.
func (w *Writer) Record(ctx context.Context, projectID, actorID string, entityType model.EntityType, entityID, action string) error {
	entry := model.ActivityLogEntry{
		ID:         repository.NewID(),
		ProjectID:  projectID,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}

	if err := w.repo.CreateActivityLog(ctx, &entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	w.metrics.IncActivityRecorded()
	w.logger.Debug("activity recorded",
		"project_id", projectID,
		"entity_type", entityType,
		"action", action,
	)

	return nil
}
