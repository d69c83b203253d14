package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveStoreCall is a no-op.
func (n *NoopRecorder) ObserveStoreCall(operation string, duration time.Duration) {}

// IncStoreError is a no-op.
func (n *NoopRecorder) IncStoreError(operation string) {}

// IncProjectCreated is a no-op.
func (n *NoopRecorder) IncProjectCreated() {}

// IncMemberAdded is a no-op.
func (n *NoopRecorder) IncMemberAdded() {}

// IncTaskCreated is a no-op.
func (n *NoopRecorder) IncTaskCreated() {}

// IncTaskAssigned is a no-op.
func (n *NoopRecorder) IncTaskAssigned() {}

// IncTaskStatusChanged is a no-op.
func (n *NoopRecorder) IncTaskStatusChanged() {}

// IncActivityRecorded is a no-op.
func (n *NoopRecorder) IncActivityRecorded() {}

// IncAuthEvent is a no-op.
func (n *NoopRecorder) IncAuthEvent(kind string) {}

// IncRealtimeEvent is a no-op.
func (n *NoopRecorder) IncRealtimeEvent(result string) {}
