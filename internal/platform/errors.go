package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response from the platform. Any call that
// reaches the platform and comes back with a non-2xx status returns
// one of these; callers inspect the status to classify it.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // machine-readable code, e.g. "document_not_found"
	Message string // human-readable message
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("platform error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether the platform rejected the request because
// the document does not exist.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsConflict reports whether the platform rejected the request because
// it would violate a unique index.
func (e *APIError) IsConflict() bool {
	return e.Status == http.StatusConflict
}

// IsUnauthorized reports whether the platform rejected the request's
// credentials, either the API key or the session token.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsNotFound reports whether err is a platform not-found rejection.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsConflict reports whether err is a platform unique-index rejection.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsConflict()
}

// IsUnauthorized reports whether err is a platform credential rejection.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}
