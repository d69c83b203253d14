// Package repository persists domain entities as documents in the
// platform's document store.
package repository

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/execos/execos/internal/platform"
)

// Collection names on the platform document store. Case-sensitive.
const (
	CollectionProjects       = "projects"
	CollectionProjectMembers = "project_members"
	CollectionTasks          = "tasks"
	CollectionActivityLogs   = "activity_logs"
)

// DocumentStore is the slice of the platform document API the
// repository needs. *platform.Databases satisfies it.
type DocumentStore interface {
	Create(ctx context.Context, collection string, document any) error
	Get(ctx context.Context, collection, id string, out any) error
	Update(ctx context.Context, collection, id string, patch any) error
	List(ctx context.Context, collection string, q platform.Query, out any) error
}

// Repository provides document store access methods.
type Repository struct {
	store DocumentStore
}

// New creates a Repository backed by the given document store.
func New(store DocumentStore) *Repository {
	return &Repository{store: store}
}

// NewID returns a fresh document id. IDs are lexicographically
// sortable by creation time.
func NewID() string {
	return ulid.Make().String()
}
