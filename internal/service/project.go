// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/execos/execos/internal/activity"
	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/policy"
	"github.com/execos/execos/internal/repository"
)

// Service errors.
var (
	ErrOwnerRequired       = fmt.Errorf("%w: owner id is required", apperrors.ErrValidation)
	ErrProjectNameRequired = fmt.Errorf("%w: project name is required", apperrors.ErrValidation)
	ErrProjectIDRequired   = fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	ErrUserIDRequired      = fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	ErrActorRequired       = fmt.Errorf("%w: actor id is required", apperrors.ErrValidation)
	ErrAlreadyMember       = fmt.Errorf("%w: user is already a member of this project", apperrors.ErrConflict)
	ErrProjectNotFound     = fmt.Errorf("%w: project not found", apperrors.ErrNotFound)
)

// ProjectService handles project and membership business logic.
type ProjectService struct {
	repo     *repository.Repository
	policy   *policy.MembershipPolicy
	activity *activity.Writer
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewProjectService creates a new ProjectService.
func NewProjectService(repo *repository.Repository, pol *policy.MembershipPolicy, writer *activity.Writer, logger *slog.Logger, recorder metrics.Recorder) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProjectService{
		repo:     repo,
		policy:   pol,
		activity: writer,
		logger:   logger.With("component", "project_service"),
		metrics:  recorder,
	}
}

// CreateProjectInput defines input for creating a project.
type CreateProjectInput struct {
	OwnerID string
	Name    string
}

// CreateProject creates a project, enrolls the owner as its first member
// and records the creation in the activity log.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*model.Project, error) {
	if input.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if input.Name == "" {
		return nil, ErrProjectNameRequired
	}

	now := time.Now().UTC()
	project := &model.Project{
		ID:        repository.NewID(),
		Name:      input.Name,
		OwnerID:   input.OwnerID,
		CreatedAt: now,
	}

	// The three writes below are not atomic: a failure partway through
	// leaves the earlier writes persisted and the error propagates.
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	membership := &model.ProjectMembership{
		ID:        repository.NewID(),
		ProjectID: project.ID,
		UserID:    input.OwnerID,
		JoinedAt:  now,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to enroll owner: %w", err)
	}

	if err := s.activity.Record(ctx, project.ID, input.OwnerID, model.EntityTypeProject, project.ID, model.ActionCreate); err != nil {
		return nil, err
	}

	s.metrics.IncProjectCreated()
	s.logger.Info("project created", "project_id", project.ID, "owner_id", input.OwnerID)

	return project, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, ErrProjectIDRequired
	}

	project, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	return project, nil
}

// ListUserProjects returns every project the user belongs to, in the
// order of the user's membership records.
func (s *ProjectService) ListUserProjects(ctx context.Context, userID string) ([]*model.Project, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []*model.Project{}, nil
	}

	// Fetch the referenced projects concurrently; results keep the
	// membership order.
	projects := make([]*model.Project, len(memberships))
	errs := make([]error, len(memberships))

	var wg sync.WaitGroup
	for i, m := range memberships {
		wg.Add(1)
		go func(i int, projectID string) {
			defer wg.Done()
			projects[i], errs[i] = s.repo.GetProjectByID(ctx, projectID)
		}(i, m.ProjectID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, err
		}
	}

	return projects, nil
}

// AddMemberInput defines input for adding a user to a project.
type AddMemberInput struct {
	ProjectID string
	UserID    string
	ActorID   string
}

// AddMember enrolls a user into a project. The actor must already be a
// member; adding an existing member fails with a conflict.
func (s *ProjectService) AddMember(ctx context.Context, input AddMemberInput) (*model.ProjectMembership, error) {
	if input.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}
	if input.UserID == "" {
		return nil, ErrUserIDRequired
	}
	if input.ActorID == "" {
		return nil, ErrActorRequired
	}

	if err := s.policy.Authorize(ctx, input.ActorID, input.ProjectID); err != nil {
		return nil, err
	}

	exists, err := s.policy.IsMember(ctx, input.UserID, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	membership := &model.ProjectMembership{
		ID:        repository.NewID(),
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		// The unique index backstops a concurrent add that slipped past
		// the membership check above.
		if errors.Is(err, repository.ErrMembershipExists) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	if err := s.activity.Record(ctx, input.ProjectID, input.ActorID, model.EntityTypeMember, membership.ID, model.ActionAddMember); err != nil {
		return nil, err
	}

	s.metrics.IncMemberAdded()
	s.logger.Info("member added", "project_id", input.ProjectID, "user_id", input.UserID, "actor_id", input.ActorID)

	return membership, nil
}

// ListProjectMembers returns a project's memberships ordered by join time.
func (s *ProjectService) ListProjectMembers(ctx context.Context, projectID string) ([]*model.ProjectMembership, error) {
	if projectID == "" {
		return nil, ErrProjectIDRequired
	}

	memberships, err := s.repo.ListMembershipsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return memberships, nil
}
