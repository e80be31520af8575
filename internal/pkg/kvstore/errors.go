package kvstore

import (
	"errors"
	"fmt"
)

var ErrMissingRecordID = errors.New("record requires an id")

// RejectedError reports a non-retryable upstream response: a 4xx or another
// application-level refusal. It is surfaced immediately and never retried.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("object store rejected request: status=%d message=%q", e.StatusCode, e.Message)
}

// UnavailableError reports an exhausted retry budget against transport
// failures or 5xx responses. StatusCode is zero when the last attempt failed
// at the transport level; Err is nil when it failed with an HTTP status.
type UnavailableError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("object store unavailable after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("object store unavailable after %d attempts: last status %d", e.Attempts, e.StatusCode)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
