package metrics

import (
	"testing"
	"time"
)

// The in-memory recorder is both the Recorder the services take and the
// Snapshotter tests read counters back through.
var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Recorder    = (*NoopRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	rec := NewInMemory()

	rec.ObserveStoreCall("documents.get", 10*time.Millisecond)
	rec.ObserveStoreCall("documents.get", 5*time.Millisecond)
	rec.IncStoreError("documents.create")
	rec.IncProjectCreated()
	rec.IncMemberAdded()
	rec.IncTaskCreated()
	rec.IncTaskAssigned()
	rec.IncTaskStatusChanged()
	rec.IncActivityRecorded()
	rec.IncAuthEvent("login")
	rec.IncRealtimeEvent("delivered")

	var snap Snapshotter = rec
	got := snap.Snapshot()

	if got.StoreCalls["documents.get"] != 2 {
		t.Errorf("store calls = %d, want 2", got.StoreCalls["documents.get"])
	}
	if want := (15 * time.Millisecond).Nanoseconds(); got.StoreCallTotalNs["documents.get"] != want {
		t.Errorf("store call total = %d, want %d", got.StoreCallTotalNs["documents.get"], want)
	}
	if got.StoreErrors["documents.create"] != 1 {
		t.Errorf("store errors = %d, want 1", got.StoreErrors["documents.create"])
	}
	if got.ProjectsCreated != 1 || got.MembersAdded != 1 || got.TasksCreated != 1 ||
		got.TasksAssigned != 1 || got.TaskStatusChanges != 1 || got.ActivityRecorded != 1 {
		t.Errorf("service counters = %+v, want all 1", got)
	}
	if got.AuthEvents["login"] != 1 {
		t.Errorf("auth events = %d, want 1", got.AuthEvents["login"])
	}
	if got.RealtimeEvents["delivered"] != 1 {
		t.Errorf("realtime events = %d, want 1", got.RealtimeEvents["delivered"])
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	rec := NewInMemory()
	rec.IncAuthEvent("login")

	first := rec.Snapshot()
	rec.IncAuthEvent("login")

	if first.AuthEvents["login"] != 1 {
		t.Errorf("earlier snapshot mutated: login = %d, want 1", first.AuthEvents["login"])
	}
}
