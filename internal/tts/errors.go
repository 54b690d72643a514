package tts

import (
	"errors"
	"fmt"
)

// Static errors for synthesis backend failures.
var (
	// ErrAuthentication is returned when the backend rejects the credential.
	// Never retried.
	ErrAuthentication = errors.New("tts: authentication failed")
	// ErrQuotaExceeded is returned when the backend reports a rate or
	// billing limit. Retried with backoff.
	ErrQuotaExceeded = errors.New("tts: quota exceeded")
)

// InvalidRequestError is returned when the backend rejects the request
// itself, typically malformed SSML or a document over the size limit. It
// carries the SSML length so oversized documents are diagnosable.
type InvalidRequestError struct {
	SSMLBytes int
	Message   string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("tts: invalid request (ssml %d bytes): %s", e.SSMLBytes, e.Message)
}

// TransientError wraps connection-level and server-side failures that are
// safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "tts: transient failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error should be retried under the policy.
// Only quota and transient failures qualify.
func Retryable(err error) bool {
	var te *TransientError
	return errors.Is(err, ErrQuotaExceeded) || errors.As(err, &te)
}
