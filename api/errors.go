package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("api: not found")
	// ErrInvalidBaseURL is returned by New for unusable base URLs.
	ErrInvalidBaseURL = errors.New("api: invalid base url")
)

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Message extracts a user-facing message from err, falling back to fallback when err
// does not carry one from the backend.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
