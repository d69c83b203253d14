package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/execos/execos/internal/activity"
	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/policy"
	"github.com/execos/execos/internal/repository"
	"github.com/execos/execos/internal/testutil"
)

func newTestTaskService(t *testing.T) (*TaskService, *repository.Repository, *testutil.FakeStore, *metrics.InMemoryRecorder) {
	t.Helper()

	store := testutil.NewFakeStore()
	store.AddUniqueIndex(repository.CollectionProjectMembers, "projectId", "userId")
	repo := repository.New(store)
	recorder := metrics.NewInMemory()
	pol := policy.NewMembershipPolicy(repo, nil)
	writer := activity.NewWriter(repo, nil, recorder)

	return NewTaskService(repo, pol, writer, nil, recorder), repo, store, recorder
}

func seedTask(t *testing.T, repo *repository.Repository, projectID string) *model.Task {
	t.Helper()

	task := testutil.NewTestTask(t, projectID)
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return task
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	svc, repo, store, recorder := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		ActorID:     "u1",
		ProjectID:   "p1",
		Title:       "Write launch checklist",
		Description: "Everything needed before go-live",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if task.ID == "" {
		t.Error("expected task id to be set")
	}
	if task.Status != model.TaskStatusTodo {
		t.Errorf("status = %s, want %s", task.Status, model.TaskStatusTodo)
	}
	if task.Title != "Write launch checklist" {
		t.Errorf("title = %s, want Write launch checklist", task.Title)
	}
	if task.AssigneeID != "" {
		t.Errorf("assigneeId = %s, want empty", task.AssigneeID)
	}

	if got := store.Count(repository.CollectionTasks); got != 1 {
		t.Errorf("task count = %d, want 1", got)
	}
	counts := entriesByAction(t, repo, "p1")
	if counts[model.ActionCreate] != 1 {
		t.Errorf("create entries = %d, want 1", counts[model.ActionCreate])
	}
	if got := recorder.Snapshot().TasksCreated; got != 1 {
		t.Errorf("tasks created counter = %d, want 1", got)
	}
}

func TestCreateTask_WithAssigneeAndDueDate(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")
	seedMembership(t, repo, "p1", "u2")

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		ActorID:    "u1",
		ProjectID:  "p1",
		Title:      "Ship it",
		AssigneeID: "u2",
		DueDate:    &due,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if task.AssigneeID != "u2" {
		t.Errorf("assigneeId = %s, want u2", task.AssigneeID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("dueDate = %v, want %v", task.DueDate, due)
	}
}

func TestCreateTask_ActorNotMember(t *testing.T) {
	t.Parallel()

	svc, _, store, _ := newTestTaskService(t)

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ActorID:   "outsider",
		ProjectID: "p1",
		Title:     "Sneak one in",
	})
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}

	// The denied create leaves no task and no audit entry behind.
	if got := store.Count(repository.CollectionTasks); got != 0 {
		t.Errorf("task count = %d, want 0", got)
	}
	if got := store.Count(repository.CollectionActivityLogs); got != 0 {
		t.Errorf("activity count = %d, want 0", got)
	}
}

func TestCreateTask_AssigneeNotMember(t *testing.T) {
	t.Parallel()

	svc, repo, store, _ := newTestTaskService(t)
	seedMembership(t, repo, "p1", "u1")

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ActorID:    "u1",
		ProjectID:  "p1",
		Title:      "Handoff",
		AssigneeID: "outsider",
	})
	if !errors.Is(err, ErrAssigneeNotMember) {
		t.Errorf("error = %v, want %v", err, ErrAssigneeNotMember)
	}
	if got := store.Count(repository.CollectionTasks); got != 0 {
		t.Errorf("task count = %d, want 0", got)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   CreateTaskInput
		wantErr error
	}{
		{"missing actor", CreateTaskInput{ProjectID: "p1", Title: "x"}, ErrActorRequired},
		{"missing project", CreateTaskInput{ActorID: "u1", Title: "x"}, ErrProjectIDRequired},
		{"missing title", CreateTaskInput{ActorID: "u1", ProjectID: "p1"}, ErrTaskTitleRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestTaskService(t)

			_, err := svc.CreateTask(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestAssignTask(t *testing.T) {
	t.Parallel()

	svc, repo, _, recorder := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")
	seedMembership(t, repo, "p1", "u2")
	task := seedTask(t, repo, "p1")

	updated, err := svc.AssignTask(ctx, "u1", task.ID, "u2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.AssigneeID != "u2" {
		t.Errorf("assigneeId = %s, want u2", updated.AssigneeID)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) && !updated.UpdatedAt.Equal(task.UpdatedAt) {
		t.Errorf("updatedAt = %v, want >= %v", updated.UpdatedAt, task.UpdatedAt)
	}

	// The stored document keeps its other fields.
	stored, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.AssigneeID != "u2" {
		t.Errorf("stored assigneeId = %s, want u2", stored.AssigneeID)
	}
	if stored.Status != model.TaskStatusTodo {
		t.Errorf("stored status = %s, want %s", stored.Status, model.TaskStatusTodo)
	}
	if stored.Title != task.Title {
		t.Errorf("stored title = %s, want %s", stored.Title, task.Title)
	}

	counts := entriesByAction(t, repo, "p1")
	if counts[model.ActionAssign] != 1 {
		t.Errorf("assign entries = %d, want 1", counts[model.ActionAssign])
	}
	if got := recorder.Snapshot().TasksAssigned; got != 1 {
		t.Errorf("tasks assigned counter = %d, want 1", got)
	}
}

func TestAssignTask_AssigneeNotMember(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")
	task := seedTask(t, repo, "p1")

	// The actor is a member but the assignee is not.
	_, err := svc.AssignTask(ctx, "u1", task.ID, "outsider")
	if !errors.Is(err, ErrAssigneeNotMember) {
		t.Errorf("error = %v, want %v", err, ErrAssigneeNotMember)
	}
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("expected an authorization error, got %v", err)
	}

	stored, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.AssigneeID != "" {
		t.Errorf("stored assigneeId = %s, want empty", stored.AssigneeID)
	}
}

func TestAssignTask_ActorNotMember(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	seedMembership(t, repo, "p1", "u2")
	task := seedTask(t, repo, "p1")

	_, err := svc.AssignTask(context.Background(), "outsider", task.ID, "u2")
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestAssignTask_NotFound(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestTaskService(t)

	_, err := svc.AssignTask(context.Background(), "u1", "missing", "u2")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("error = %v, want %v", err, ErrTaskNotFound)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected a not found error, got %v", err)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	t.Parallel()

	svc, repo, _, recorder := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")
	task := seedTask(t, repo, "p1")

	updated, err := svc.UpdateTaskStatus(ctx, "u1", task.ID, "done")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != model.TaskStatusDone {
		t.Errorf("status = %s, want %s", updated.Status, model.TaskStatusDone)
	}

	counts := entriesByAction(t, repo, "p1")
	if counts["status:done"] != 1 {
		t.Errorf("status:done entries = %d, want 1", counts["status:done"])
	}
	if got := recorder.Snapshot().TaskStatusChanges; got != 1 {
		t.Errorf("status change counter = %d, want 1", got)
	}
}

func TestUpdateTaskStatus_AnyTransitionAllowed(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	ctx := context.Background()
	seedMembership(t, repo, "p1", "u1")
	task := seedTask(t, repo, "p1")

	// No forward-only ordering: done can go back to todo.
	for _, status := range []string{"doing", "done", "todo", "done"} {
		updated, err := svc.UpdateTaskStatus(ctx, "u1", task.ID, status)
		if err != nil {
			t.Fatalf("UpdateTaskStatus(%s): expected no error, got %v", status, err)
		}
		if string(updated.Status) != status {
			t.Errorf("status = %s, want %s", updated.Status, status)
		}
	}
}

func TestUpdateTaskStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	svc, repo, store, _ := newTestTaskService(t)
	seedMembership(t, repo, "p1", "u1")
	task := seedTask(t, repo, "p1")

	// Validation runs before any remote call, so a failing store is
	// never reached.
	store.FailWith("get", repository.CollectionTasks, errors.New("store unavailable"))

	_, err := svc.UpdateTaskStatus(context.Background(), "u1", task.ID, "blocked")
	if !errors.Is(err, ErrInvalidTaskStatus) {
		t.Errorf("error = %v, want %v", err, ErrInvalidTaskStatus)
	}
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestUpdateTaskStatus_ActorNotMember(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	ctx := context.Background()
	task := seedTask(t, repo, "p1")

	_, err := svc.UpdateTaskStatus(ctx, "outsider", task.ID, "done")
	if !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}

	stored, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.Status != model.TaskStatusTodo {
		t.Errorf("stored status = %s, want %s", stored.Status, model.TaskStatusTodo)
	}
}

func TestUpdateTaskStatus_NotFound(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestTaskService(t)

	_, err := svc.UpdateTaskStatus(context.Background(), "u1", "missing", "done")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("error = %v, want %v", err, ErrTaskNotFound)
	}
}

func TestListProjectTasks(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestTaskService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	titles := []string{"first", "second", "third"}
	for i, title := range titles {
		task := testutil.NewTestTask(t, "p1")
		task.Title = title
		task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	other := testutil.NewTestTask(t, "p2")
	if err := repo.CreateTask(ctx, other); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Listing needs no membership; read access is the platform's concern.
	tasks, err := svc.ListProjectTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("len = %d, want 3", len(tasks))
	}
	if tasks[0].Title != "third" {
		t.Errorf("first task = %s, want third (newest first)", tasks[0].Title)
	}
}

func TestListProjectTasks_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestTaskService(t)

	_, err := svc.ListProjectTasks(context.Background(), "")
	if !errors.Is(err, ErrProjectIDRequired) {
		t.Errorf("error = %v, want %v", err, ErrProjectIDRequired)
	}
}
