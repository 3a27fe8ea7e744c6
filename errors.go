package timedex

import (
	"errors"
	"fmt"
)

// ErrRange is the error returned when a query window is narrower than one
// chunk interval, which can never be satisfied.
var ErrRange = errors.New("time frame is smaller than index interval")

// ValidationError rejects a write that breaks a chunk or link rule.
// The write simply does not happen; nothing partial remains committed.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Validationf produces a ValidationError with a formatted reason.
func Validationf(format string, args ...interface{}) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SerializationError wraps a failure to decode a stored record into the
// expected type.
type SerializationError struct {
	Err error
}

func (e SerializationError) Error() string {
	return "decoding record: " + e.Err.Error()
}

func (e SerializationError) Unwrap() error { return e.Err }

// InternalError reports a violated traversal invariant, such as an
// expected non-empty child set being empty. It is fatal to the operation
// and is surfaced as-is; callers must not retry.
type InternalError string

func (e InternalError) Error() string { return "internal: " + string(e) }
