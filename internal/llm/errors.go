package llm

import (
	"fmt"
	"time"
)

// Stage names used in errors and log lines.
const (
	StageStructuring = "structuring"
	StageMapping     = "mapping"
)

// RateLimitError is returned when the completion service rejects a call with
// HTTP 429, either for request rate or for exhausted quota. It is terminal for
// the run that hit it.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("completion service rate limit: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ServiceError covers every other failed round trip: network errors,
// authentication failures, malformed or empty responses.
type ServiceError struct {
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service error (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// TimeoutError is returned when the per-call deadline expires before the
// service answers.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("completion call timed out after %s: %v", e.Timeout, e.Err)
	}
	return fmt.Sprintf("completion call timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ParseError is returned when a model response is not the JSON the stage
// asked for. Raw holds the response text exactly as received.
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s output is not valid JSON: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
