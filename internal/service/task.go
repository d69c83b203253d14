package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/execos/execos/internal/activity"
	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/policy"
	"github.com/execos/execos/internal/repository"
)

// Task service errors.
var (
	ErrTaskIDRequired    = fmt.Errorf("%w: task id is required", apperrors.ErrValidation)
	ErrTaskTitleRequired = fmt.Errorf("%w: task title is required", apperrors.ErrValidation)
	ErrAssigneeRequired  = fmt.Errorf("%w: assignee id is required", apperrors.ErrValidation)
	ErrInvalidTaskStatus = fmt.Errorf("%w: invalid task status", apperrors.ErrValidation)
	ErrTaskNotFound      = fmt.Errorf("%w: task not found", apperrors.ErrNotFound)
	ErrAssigneeNotMember = fmt.Errorf("%w: assignee is not a project member", apperrors.ErrNotAuthorized)
)

// maxProjectTasks caps a project task listing.
const maxProjectTasks = 200

// TaskService handles task business logic.
type TaskService struct {
	repo     *repository.Repository
	policy   *policy.MembershipPolicy
	activity *activity.Writer
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *repository.Repository, pol *policy.MembershipPolicy, writer *activity.Writer, logger *slog.Logger, recorder metrics.Recorder) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TaskService{
		repo:     repo,
		policy:   pol,
		activity: writer,
		logger:   logger.With("component", "task_service"),
		metrics:  recorder,
	}
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	ActorID     string
	ProjectID   string
	Title       string
	Description string
	AssigneeID  string
	DueDate     *time.Time
}

// CreateTask creates a task in status todo and records the creation in
// the activity log. The actor, and the assignee when given, must be
// members of the project.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if input.ActorID == "" {
		return nil, ErrActorRequired
	}
	if input.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}
	if input.Title == "" {
		return nil, ErrTaskTitleRequired
	}

	if err := s.policy.Authorize(ctx, input.ActorID, input.ProjectID); err != nil {
		return nil, err
	}
	if input.AssigneeID != "" {
		member, err := s.policy.IsMember(ctx, input.AssigneeID, input.ProjectID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrAssigneeNotMember
		}
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          repository.NewID(),
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      model.TaskStatusTodo,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if err := s.activity.Record(ctx, input.ProjectID, input.ActorID, model.EntityTypeTask, task.ID, model.ActionCreate); err != nil {
		return nil, err
	}

	s.metrics.IncTaskCreated()
	s.logger.Info("task created", "task_id", task.ID, "project_id", input.ProjectID, "actor_id", input.ActorID)

	return task, nil
}

// AssignTask hands a task to a new assignee. Both the actor and the
// assignee must be members of the task's project.
func (s *TaskService) AssignTask(ctx context.Context, actorID, taskID, assigneeID string) (*model.Task, error) {
	if actorID == "" {
		return nil, ErrActorRequired
	}
	if taskID == "" {
		return nil, ErrTaskIDRequired
	}
	if assigneeID == "" {
		return nil, ErrAssigneeRequired
	}

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.policy.Authorize(ctx, actorID, task.ProjectID); err != nil {
		return nil, err
	}
	member, err := s.policy.IsMember(ctx, assigneeID, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrAssigneeNotMember
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateTaskAssignee(ctx, taskID, assigneeID, now); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.activity.Record(ctx, task.ProjectID, actorID, model.EntityTypeTask, task.ID, model.ActionAssign); err != nil {
		return nil, err
	}

	task.AssigneeID = assigneeID
	task.UpdatedAt = now

	s.metrics.IncTaskAssigned()
	s.logger.Info("task assigned", "task_id", task.ID, "assignee_id", assigneeID, "actor_id", actorID)

	return task, nil
}

// UpdateTaskStatus moves a task to a new workflow status. Any member may
// set any valid status; no forward-only ordering is enforced.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actorID, taskID, status string) (*model.Task, error) {
	if actorID == "" {
		return nil, ErrActorRequired
	}
	if taskID == "" {
		return nil, ErrTaskIDRequired
	}
	newStatus := model.TaskStatus(status)
	if !newStatus.IsValid() {
		return nil, ErrInvalidTaskStatus
	}

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.policy.Authorize(ctx, actorID, task.ProjectID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateTaskStatus(ctx, taskID, newStatus, now); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.activity.Record(ctx, task.ProjectID, actorID, model.EntityTypeTask, task.ID, model.StatusAction(newStatus)); err != nil {
		return nil, err
	}

	task.Status = newStatus
	task.UpdatedAt = now

	s.metrics.IncTaskStatusChanged()
	s.logger.Info("task status updated", "task_id", task.ID, "status", newStatus, "actor_id", actorID)

	return task, nil
}

// ListProjectTasks returns a project's tasks, newest first, capped at
// 200. No membership check is performed; read access is delegated to
// the platform's permission rules.
func (s *TaskService) ListProjectTasks(ctx context.Context, projectID string) ([]*model.Task, error) {
	if projectID == "" {
		return nil, ErrProjectIDRequired
	}

	tasks, err := s.repo.ListTasksByProject(ctx, projectID, maxProjectTasks)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}
