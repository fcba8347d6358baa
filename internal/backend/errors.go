package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call so callers can branch on the class
// of failure instead of matching message strings.
type Kind string

const (
	Unauthorized      Kind = "unauthorized"
	NetworkFailure    Kind = "network_failure"
	ValidationFailure Kind = "validation_failure"
	ServerRejected    Kind = "server_rejected"
)

// Error is the single error type returned by the client. Detail carries
// the server-provided message when one was available.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("voxvid api: %s (%s)", e.Detail, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("voxvid api: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("voxvid api: %s (status %d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, or "" for nil/foreign errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// UserMessage returns text safe to show in the UI.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Something went wrong. Please try again."
}
