package response

import (
	"errors"
)

// Error carries the HTTP status a domain error should be reported with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap keeps the status of sentinel while recording cause for logs.
func Wrap(sentinel error, cause error) error {
	var s *Error
	if !errors.As(sentinel, &s) || cause == nil {
		return sentinel
	}
	return &wrapped{base: s, cause: cause}
}

type wrapped struct {
	base  *Error
	cause error
}

func (w *wrapped) Error() string {
	return w.base.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.base, w.cause}
}
