package model

import "time"

// EntityType identifies the kind of record an activity log entry
// describes.
type EntityType string

const (
	EntityTypeProject EntityType = "project"
	EntityTypeMember  EntityType = "member"
	EntityTypeTask    EntityType = "task"
)

// Actions recorded in the activity log. Task status changes use
// StatusAction instead of a fixed constant.
const (
	ActionCreate    = "create"
	ActionAddMember = "add_member"
	ActionAssign    = "assign"
)

// StatusAction builds the action string recorded for a task status
// change, e.g. "status:done".
func StatusAction(status TaskStatus) string {
	return "status:" + string(status)
}

// ActivityLogEntry is one audit record. The service layer appends an
// entry after every successful mutation and never updates or deletes
// entries.
type ActivityLogEntry struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	ActorID    string     `json:"actorId"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Action     string     `json:"action"`
	CreatedAt  time.Time  `json:"createdAt"`
}
