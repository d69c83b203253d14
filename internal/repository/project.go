package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
)

// Common errors for project repository operations.
var (
	ErrProjectNotFound = errors.New("project not found")
)

// CreateProject inserts a new project document.
func (r *Repository) CreateProject(ctx context.Context, project *model.Project) error {
	if err := r.store.Create(ctx, CollectionProjects, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProjectByID retrieves a project by its id.
func (r *Repository) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := r.store.Get(ctx, CollectionProjects, id, &project); err != nil {
		if platform.IsNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}
