// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Platform client metrics
	ObserveStoreCall(operation string, duration time.Duration)
	IncStoreError(operation string)

	// Service metrics
	IncProjectCreated()
	IncMemberAdded()
	IncTaskCreated()
	IncTaskAssigned()
	IncTaskStatusChanged()
	IncActivityRecorded()

	// Session metrics
	IncAuthEvent(kind string) // kind: "register", "login", "logout", "resume"

	// Realtime feed metrics
	IncRealtimeEvent(result string) // result: "delivered" or "malformed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
