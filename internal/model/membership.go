package model

import "time"

// ProjectMembership links a user to a project. Holding a membership
// grants read/write access to the project's tasks and members.
//
// At most one membership record exists per (projectId, userId) pair.
type ProjectMembership struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	JoinedAt  time.Time `json:"joinedAt"`
}
