package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	StoreCalls       map[string]uint64
	StoreCallTotalNs map[string]int64
	StoreErrors      map[string]uint64

	ProjectsCreated   uint64
	MembersAdded      uint64
	TasksCreated      uint64
	TasksAssigned     uint64
	TaskStatusChanges uint64
	ActivityRecorded  uint64

	AuthEvents     map[string]uint64
	RealtimeEvents map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	projectsCreated   uint64
	membersAdded      uint64
	tasksCreated      uint64
	tasksAssigned     uint64
	taskStatusChanges uint64
	activityRecorded  uint64

	mu               sync.Mutex
	storeCalls       map[string]uint64
	storeCallTotalNs map[string]int64
	storeErrors      map[string]uint64
	authEvents       map[string]uint64
	realtimeEvents   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		storeCalls:       make(map[string]uint64),
		storeCallTotalNs: make(map[string]int64),
		storeErrors:      make(map[string]uint64),
		authEvents:       make(map[string]uint64),
		realtimeEvents:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		StoreCalls:        copyCounters(m.storeCalls),
		StoreCallTotalNs:  copyDurations(m.storeCallTotalNs),
		StoreErrors:       copyCounters(m.storeErrors),
		ProjectsCreated:   atomic.LoadUint64(&m.projectsCreated),
		MembersAdded:      atomic.LoadUint64(&m.membersAdded),
		TasksCreated:      atomic.LoadUint64(&m.tasksCreated),
		TasksAssigned:     atomic.LoadUint64(&m.tasksAssigned),
		TaskStatusChanges: atomic.LoadUint64(&m.taskStatusChanges),
		ActivityRecorded:  atomic.LoadUint64(&m.activityRecorded),
		AuthEvents:        copyCounters(m.authEvents),
		RealtimeEvents:    copyCounters(m.realtimeEvents),
	}
}

// ObserveStoreCall records one platform call and its duration.
func (m *InMemoryRecorder) ObserveStoreCall(operation string, duration time.Duration) {
	m.mu.Lock()
	m.storeCalls[operation]++
	m.storeCallTotalNs[operation] += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncStoreError records one failed platform call.
func (m *InMemoryRecorder) IncStoreError(operation string) {
	m.mu.Lock()
	m.storeErrors[operation]++
	m.mu.Unlock()
}

// IncProjectCreated increments the project created counter.
func (m *InMemoryRecorder) IncProjectCreated() {
	atomic.AddUint64(&m.projectsCreated, 1)
}

// IncMemberAdded increments the member added counter.
func (m *InMemoryRecorder) IncMemberAdded() {
	atomic.AddUint64(&m.membersAdded, 1)
}

// IncTaskCreated increments the task created counter.
func (m *InMemoryRecorder) IncTaskCreated() {
	atomic.AddUint64(&m.tasksCreated, 1)
}

// IncTaskAssigned increments the task assigned counter.
func (m *InMemoryRecorder) IncTaskAssigned() {
	atomic.AddUint64(&m.tasksAssigned, 1)
}

// IncTaskStatusChanged increments the status change counter.
func (m *InMemoryRecorder) IncTaskStatusChanged() {
	atomic.AddUint64(&m.taskStatusChanges, 1)
}

// IncActivityRecorded increments the activity entry counter.
func (m *InMemoryRecorder) IncActivityRecorded() {
	atomic.AddUint64(&m.activityRecorded, 1)
}

// IncAuthEvent records one auth event by kind.
func (m *InMemoryRecorder) IncAuthEvent(kind string) {
	m.mu.Lock()
	m.authEvents[kind]++
	m.mu.Unlock()
}

// IncRealtimeEvent records one realtime feed event by result.
func (m *InMemoryRecorder) IncRealtimeEvent(result string) {
	m.mu.Lock()
	m.realtimeEvents[result]++
	m.mu.Unlock()
}

func copyCounters(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyDurations(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
