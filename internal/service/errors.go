package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for the API layer. Handlers map kinds to
// HTTP statuses; raw storage errors never reach the client.
type Kind int

const (
	// KindValidation is malformed or out-of-range input. Not retryable.
	KindValidation Kind = iota + 1
	// KindConflict is a duplicate or a link the data model forbids.
	KindConflict
	// KindNotFound is a missing record, or one the caller does not own.
	KindNotFound
	// KindConsistency is a defensive invariant violation: an update that
	// should have touched exactly one row touched zero or several, or an
	// optimistic version check failed.
	KindConsistency
)

// Error is a classified service failure with a stable, client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the client-safe text, without any wrapped detail.
func (e *Error) Message() string { return e.Msg }

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func consistencyf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConsistency, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, or zero when err is not a service Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
