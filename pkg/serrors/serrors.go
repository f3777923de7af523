// Package serrors defines semantic error kinds shared by the fetcher, the view
// and the HTTP layer, plus an Error wrapper that matches both its kind and its
// cause through errors.Is / errors.As.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel).
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrNotFound indicates the upstream API or the page has no such entity.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates a missing or malformed identifier.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrCanceled indicates the request belonged to a superseded generation.
	ErrCanceled = NewKind("CANCELED")
	// ErrUpstream indicates the upstream API answered with a non-success status
	// or an unusable payload.
	ErrUpstream = NewKind("UPSTREAM")
	// ErrInternal indicates an internal error.
	ErrInternal = NewKind("INTERNAL")
	// ErrTimeout indicates the operation timed out.
	ErrTimeout = NewKind("TIMEOUT")
)

// Error carries a kind, an optional wrapped cause and an optional message.
//
// Error string formatting:
//   - msg and err set: "<msg>: <err>"
//   - only msg: "<msg>"
//   - only err: "<err>"
//   - neither: the kind's Error() string.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error that wraps err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches either the kind sentinel or anything in the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As matches either the kind sentinel or anything in the cause chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the kind sentinel, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the attached message.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// KindOf walks err's chain and returns the first semantic kind found, or nil.
// Bare Kind sentinels are returned as is.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) && se.kind != nil {
		return se.kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}
