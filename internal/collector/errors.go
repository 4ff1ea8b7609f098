package collector

import (
	"errors"
	"fmt"
)

// ErrFeedUnavailable is returned once all fetch attempts are exhausted.
var ErrFeedUnavailable = errors.New("price feed unavailable")

// FetchPath identifies which TLS mode a request used.
type FetchPath string

const (
	PathVerified   FetchPath = "verified"
	PathUnverified FetchPath = "unverified"
)

// FetchError is a transient failure of a single request.
type FetchError struct {
	Attempt   int
	Path      FetchPath
	Status    int // 0 when no response was received
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("attempt %d (%s): status %d: %v", e.Attempt, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("attempt %d (%s): %v", e.Attempt, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnavailableError reports that the feed could not be read after Attempts
// tries. It matches ErrFeedUnavailable under errors.Is.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrFeedUnavailable, e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrFeedUnavailable}
	}
	return []error{ErrFeedUnavailable, e.Last}
}
