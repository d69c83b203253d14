// Package model defines domain entities for the application.
package model

import "time"

// Project represents a team workspace that owns tasks, memberships,
// and an activity log.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
