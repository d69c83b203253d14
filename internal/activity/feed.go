package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
	"github.com/execos/execos/internal/repository"
)

// DefaultFeedLimit caps how many log entries List returns when the caller
// does not specify a limit.
const DefaultFeedLimit = 100

// ChangeStream is one open feed of raw document changes.
type ChangeStream interface {
	Events() <-chan platform.ChangeEvent
	Err() error
	Close() error
}

// StreamOpener opens a change stream for one collection, filtered by field
// equality. Use NewRealtimeOpener to adapt the platform realtime service.
type StreamOpener func(ctx context.Context, collection string, filter map[string]string) (ChangeStream, error)

// NewRealtimeOpener adapts the platform realtime service to a StreamOpener.
func NewRealtimeOpener(rt *platform.Realtime) StreamOpener {
	return func(ctx context.Context, collection string, filter map[string]string) (ChangeStream, error) {
		return rt.Subscribe(ctx, collection, filter)
	}
}

// Reader serves the activity feed, both as a paged list and as a live
// subscription.
type Reader struct {
	repo    *repository.Repository
	open    StreamOpener
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewReader creates an activity reader.
func NewReader(repo *repository.Repository, open StreamOpener, logger *slog.Logger, recorder metrics.Recorder) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Reader{
		repo:    repo,
		open:    open,
		logger:  logger.With("component", "activity"),
		metrics: recorder,
	}
}

// List returns the project's activity log entries, most recent first.
func (r *Reader) List(ctx context.Context, projectID string, limit int) ([]*model.ActivityLogEntry, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	entries, err := r.repo.ListActivityLogsByProject(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}

	return entries, nil
}

// Subscribe opens a live feed of activity log changes for one project.
// Entries arrive on the subscription's Events channel until Close is
// called or the underlying connection drops.
func (r *Reader) Subscribe(ctx context.Context, projectID string) (*Subscription, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	}

	stream, err := r.open(ctx, repository.CollectionActivityLogs, map[string]string{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to activity feed: %w", err)
	}

	sub := &Subscription{
		stream:  stream,
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
		logger:  r.logger,
		metrics: r.metrics,
	}
	go sub.pump()

	r.logger.Debug("activity subscription opened", "project_id", projectID)
	return sub, nil
}

// Event is one typed change to a project's activity log.
type Event struct {
	Type  platform.ChangeType
	Entry model.ActivityLogEntry
}

// Subscription is one live activity feed. The Events channel is closed
// when the feed ends; Err reports why, and stays nil after a clean Close.
type Subscription struct {
	stream  ChangeStream
	events  chan Event
	done    chan struct{}
	logger  *slog.Logger
	metrics metrics.Recorder

	closeOnce sync.Once
}

// Events returns the stream of typed activity changes.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Err reports why the feed ended. It returns nil while the feed is live
// and after a clean Close.
func (s *Subscription) Err() error {
	return s.stream.Err()
}

// Close ends the subscription. It is safe to call any number of times;
// disconnect errors during teardown are discarded.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.stream.Close()
	})
	return nil
}

func (s *Subscription) pump() {
	defer close(s.events)

	for ev := range s.stream.Events() {
		var entry model.ActivityLogEntry
		if err := json.Unmarshal(ev.Document, &entry); err != nil {
			s.metrics.IncRealtimeEvent("malformed")
			s.logger.Warn("dropping malformed activity event", "error", err)
			continue
		}

		s.metrics.IncRealtimeEvent("delivered")
		select {
		case s.events <- Event{Type: ev.Type, Entry: entry}:
		case <-s.done:
			return
		}
	}
}
