// Package exitcode maps errors onto the process exit codes opl reports.
// Scripts branch on these, so the mapping is part of the CLI contract.
package exitcode

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"opline/internal/match"
	"opline/internal/openproject"
)

const (
	// OK is returned on success.
	OK = 0
	// General covers anything uncategorized.
	General = 1
	// Usage covers command-line validation failures.
	Usage = 2
	// Auth covers rejected credentials (HTTP 401/403).
	Auth = 3
	// NotFound covers resolver misses, ambiguity and HTTP 404s.
	NotFound = 4
	// Workflow covers server-side rejections (HTTP 422).
	Workflow = 5
	// Endpoint covers exhausted endpoint fallback chains.
	Endpoint = 6
	// Interrupted follows the shell convention for SIGINT.
	Interrupted = 130
)

// UsageError marks command-line validation failures so they exit with
// the usage code instead of the general one.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// Usagef builds a UsageError in the fmt.Errorf manner.
func Usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// From picks the exit code for err. Typed errors win over status codes,
// so a workflow rejection stays a workflow rejection even though it
// wraps a 422 response.
func From(err error) int {
	if err == nil {
		return OK
	}
	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return Usage
	}
	var auth *openproject.AuthError
	if errors.As(err, &auth) {
		return Auth
	}
	var workflow *openproject.WorkflowError
	if errors.As(err, &workflow) {
		return Workflow
	}
	if errors.Is(err, openproject.ErrEndpointUnsupported) {
		return Endpoint
	}

	var notFound *match.NotFoundError
	if errors.As(err, &notFound) {
		return NotFound
	}
	var ambiguous *match.AmbiguousError
	if errors.As(err, &ambiguous) {
		return NotFound
	}

	var api *openproject.APIError
	if errors.As(err, &api) {
		switch api.StatusCode {
		case http.StatusNotFound:
			return NotFound
		case http.StatusUnprocessableEntity:
			return Workflow
		}
	}
	return General
}
