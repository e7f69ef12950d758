// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with sentinel errors that may be derived, to name the
// entity a failure is about or to carry a cause, without
// losing their identity when compared with errors.Is.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New sentinel Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is a sentinel error, or an error derived from a sentinel.
//
// Derived errors are copies: the sentinel itself is never mutated,
// so package-level sentinels may be wrapped concurrently.
type Error struct {
	msg     string
	subject string
	err     error
	kind    *Error
}

// Error message, formatted as "{subject}: {msg}: {cause}"
func (e *Error) Error() string {
	msg := e.msg
	if e.subject != "" {
		msg = e.subject + ": " + msg
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error into a new error of the same kind
func (e *Error) Wrap(err error) *Error {
	d := e.derive()
	d.err = err
	return d
}

// Wrapf wraps a formatted message as the cause
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// For names the entity this error is about, e.g. For("reference", "docs")
func (e *Error) For(entity, name string) *Error {
	d := e.derive()
	d.subject = fmt.Sprintf("%s %q", entity, name)
	return d
}

// Kind returns the sentinel this error derives from
func (e *Error) Kind() *Error {
	if e.kind != nil {
		return e.kind
	}
	return e
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.Kind() == t
}

func (e *Error) derive() *Error {
	d := *e
	d.kind = e.Kind()
	return &d
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}

// Unwrap returns the cause of err, if any
// (a shortcut to standard lib errors.Unwrap)
func Unwrap(err error) error {
	return stderr.Unwrap(err)
}
