package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnreachable is returned when the bot API cannot be reached at all.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrUpstreamStatus indicates the bot API answered with a non-success status.
	ErrUpstreamStatus = errors.New("upstream error status")
	// ErrMalformedResponse indicates the body is not valid JSON or misses required fields.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// StatusError carries the HTTP status of a failed upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API responded with status: %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}
