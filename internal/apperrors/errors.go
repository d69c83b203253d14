// Package apperrors defines the sentinel errors every service layer
// operation classifies its failures with. Callers match them with
// errors.Is; anything that matches none of them is an unclassified
// remote failure from the platform.
package apperrors

import "errors"

var (
	// ErrValidation marks missing or malformed input, detected before
	// any remote call is made.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthorized marks a failed membership precondition: the
	// acting user (or a would-be assignee) is not a member of the
	// project the operation touches.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrConflict marks a uniqueness violation, such as adding a user
	// who is already a project member.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
)
