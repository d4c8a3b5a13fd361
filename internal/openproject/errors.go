package openproject

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEndpointUnsupported marks a request whose endpoint fallback chain is
// exhausted. It usually means the server runs an OpenProject version that
// lacks the endpoint family entirely.
var ErrEndpointUnsupported = errors.New("no supported endpoint on this server")

// APIError wraps a non-2xx response from the OpenProject server. Message
// carries the human-readable detail extracted from the error payload.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openproject api error %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// AuthError reports a 401/403 response with guidance instead of the raw
// server payload, which is rarely actionable for credential problems.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// WorkflowError reports a work package update the server rejected with 422,
// typically because the requested status transition is not permitted for
// the current role.
type WorkflowError struct {
	WorkPackageID int
	Err           error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("work package #%d update rejected by workflow: %v", e.WorkPackageID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// hasStatus reports whether err is an API or auth error with one of the
// given HTTP status codes. Fallback chains use it to decide whether a
// failure means "endpoint unsupported here" or a real fault.
func hasStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return slices.Contains(codes, apiErr.StatusCode)
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return slices.Contains(codes, authErr.StatusCode)
	}
	return false
}
