package errors

import (
	"fmt"
	"net/http"
)

// ErrValidation is returned when request input is missing or malformed
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrNotFound is returned when a referenced resource does not exist upstream
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidState is returned when an operation is not legal in the
// resource's current lifecycle state
type ErrInvalidState struct {
	Resource string
	Current  string
	Wanted   string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("%s in status %q cannot transition to %q", e.Resource, e.Current, e.Wanted)
}

// ErrUpstream is returned when Shopify answers with a non-2xx status.
// The status code is preserved so handlers can re-surface it.
type ErrUpstream struct {
	StatusCode int
	Body       string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("shopify API error: status %d, body: %s", e.StatusCode, e.Body)
}

// ErrConflict is returned when an idempotency key is reused with a
// different payload
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// HTTPStatus maps the error taxonomy onto HTTP status codes. Upstream
// errors re-surface the upstream status when it is an error code, otherwise
// they read as a bad gateway.
func HTTPStatus(err error) int {
	switch e := err.(type) {
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrUnauthorized:
		return http.StatusUnauthorized
	case *ErrNotFound:
		return http.StatusNotFound
	case *ErrConflict:
		return http.StatusConflict
	case *ErrInvalidState:
		return http.StatusUnprocessableEntity
	case *ErrUpstream:
		if e.StatusCode >= 400 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
