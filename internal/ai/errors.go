package ai

import "fmt"

// UpstreamError indicates a transport or service failure from the
// generation call. The wrapped error is for diagnostics only and must not
// be shown to end users.
type UpstreamError struct {
	Err error
}

// Error returns the error message.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream generation call failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the upstream reply could not be coerced
// into the expected array shape after normalization.
type MalformedResponseError struct {
	Err error
}

// Error returns the error message.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed upstream response: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *MalformedResponseError) Unwrap() error { return e.Err }
