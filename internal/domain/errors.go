package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates rate limit exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUpstreamFailure indicates the answer service reported a failed answer
	ErrUpstreamFailure = errors.New("upstream answer failed")
	// ErrLookupFailed indicates a deep link lookup did not produce a URL
	ErrLookupFailed = errors.New("deep link lookup failed")
)

// UpstreamFailureError carries the skip reasons of a failed answer
type UpstreamFailureError struct {
	Reasons []string
}

func (e *UpstreamFailureError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrUpstreamFailure.Error()
	}
	return ErrUpstreamFailure.Error() + ": " + strings.Join(e.Reasons, ", ")
}

func (e *UpstreamFailureError) Unwrap() error { return ErrUpstreamFailure }
