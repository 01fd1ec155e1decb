package llm

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMissingCredential means the primary provider has no API key.
	// Every generation call fails with it; it is never retried.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrRateLimited matches any *RateLimitError via errors.Is.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrProviderTimeout marks an attempt abandoned after its deadline.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrInvalidResponse marks output that was unparseable or missing its marker field.
	ErrInvalidResponse = errors.New("invalid provider response")
)

// RateLimitError is returned when the request budget for the current window is spent.
type RateLimitError struct {
	Wait time.Duration
}

// Seconds is the wait hint rounded up to whole seconds.
func (e *RateLimitError) Seconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: please wait %ds", e.Seconds())
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// AllProvidersFailedError is returned when the primary and every backup failed.
// It wraps the last attempt's error.
type AllProvidersFailedError struct {
	Attempts int
	Last     error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all %d providers failed: %v", e.Attempts, e.Last)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return e.Last
}
