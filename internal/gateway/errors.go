package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Lookup when the agency has no such appeal.
var ErrNotFound = errors.New("appeal not found")

// ErrInvalidJSON is returned by SubmitJSON for a body that does not decode.
var ErrInvalidJSON = errors.New("invalid JSON body")

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// RateLimitedError is returned when a client has used its window.
type RateLimitedError struct {
	RetryAfter time.Duration
	Remaining  int
	ResetAt    time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds is the Retry-After header value.
func (e *RateLimitedError) RetryAfterSeconds() int {
	return int(e.RetryAfter / time.Second)
}

// UpstreamError is a failed call to the agency API. Status is zero when the
// request never got a response.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: agency API error: %d - %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
