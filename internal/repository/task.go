package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
)

// Common errors for task repository operations.
var (
	ErrTaskNotFound = errors.New("task not found")
)

// taskPatch carries the fields a task update may touch. Zero-value
// fields are left out of the patch so the store keeps their current
// values.
type taskPatch struct {
	Status     model.TaskStatus `json:"status,omitempty"`
	AssigneeID string           `json:"assigneeId,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// CreateTask inserts a new task document.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	if err := r.store.Create(ctx, CollectionTasks, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a task by its id.
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.store.Get(ctx, CollectionTasks, id, &task); err != nil {
		if platform.IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// UpdateTaskStatus sets a task's workflow status. Last write wins on
// concurrent updates; no version token is checked.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus, updatedAt time.Time) error {
	patch := taskPatch{Status: status, UpdatedAt: updatedAt}
	if err := r.store.Update(ctx, CollectionTasks, id, patch); err != nil {
		if platform.IsNotFound(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// UpdateTaskAssignee sets the user a task is assigned to. Last write
// wins on concurrent updates.
func (r *Repository) UpdateTaskAssignee(ctx context.Context, id, assigneeID string, updatedAt time.Time) error {
	patch := taskPatch{AssigneeID: assigneeID, UpdatedAt: updatedAt}
	if err := r.store.Update(ctx, CollectionTasks, id, patch); err != nil {
		if platform.IsNotFound(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task assignee: %w", err)
	}
	return nil
}

// ListTasksByProject returns tasks for a project, newest first, capped
// at limit.
func (r *Repository) ListTasksByProject(ctx context.Context, projectID string, limit int) ([]*model.Task, error) {
	q := platform.Query{
		Filters: []platform.Filter{{Field: "projectId", Value: projectID}},
		Sort:    "-createdAt",
		Limit:   limit,
	}

	var tasks []*model.Task
	if err := r.store.List(ctx, CollectionTasks, q, &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
