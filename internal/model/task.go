package model

import "time"

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "todo"
	TaskStatusDoing TaskStatus = "doing"
	TaskStatusDone  TaskStatus = "done"
)

// IsValid checks if the status is one of the known workflow states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusDoing, TaskStatusDone:
		return true
	}
	return false
}

// Task represents a unit of work owned by exactly one project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsAssigned returns true if the task has an assignee.
func (t *Task) IsAssigned() bool {
	return t.AssigneeID != ""
}

// IsOverdue returns true if the task has a due date in the past and is
// not done yet.
func (t *Task) IsOverdue() bool {
	return t.DueDate != nil && time.Now().After(*t.DueDate) && t.Status != TaskStatusDone
}
