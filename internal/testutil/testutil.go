// Package testutil provides helpers and fixtures shared across tests.
package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/execos/execos/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestProject creates a test project with sensible defaults.
func NewTestProject(t testing.TB, ownerID string) *model.Project {
	t.Helper()
	return &model.Project{
		ID:        UniqueID("proj"),
		Name:      "Test Project",
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestMembership creates a test membership with sensible defaults.
func NewTestMembership(t testing.TB, projectID, userID string) *model.ProjectMembership {
	t.Helper()
	return &model.ProjectMembership{
		ID:        UniqueID("mem"),
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  time.Now().UTC(),
	}
}

// NewTestTask creates a test task with sensible defaults.
func NewTestTask(t testing.TB, projectID string) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	return &model.Task{
		ID:        UniqueID("task"),
		ProjectID: projectID,
		Title:     "Test Task",
		Status:    model.TaskStatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestActivityEntry creates a test activity log entry with sensible
// defaults.
func NewTestActivityEntry(t testing.TB, projectID, actorID string) *model.ActivityLogEntry {
	t.Helper()
	return &model.ActivityLogEntry{
		ID:         UniqueID("act"),
		ProjectID:  projectID,
		ActorID:    actorID,
		EntityType: model.EntityTypeProject,
		EntityID:   projectID,
		Action:     model.ActionCreate,
		CreatedAt:  time.Now().UTC(),
	}
}
