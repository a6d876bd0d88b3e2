// Package apperrors holds the error kinds shared by the client core and the backend.
package apperrors

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrTransport        = errors.New("transport error")
	ErrValidation       = errors.New("validation error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrBusy             = errors.New("request already in flight")
	ErrTimeout          = errors.New("timed out")
)

// Error carries a kind, the operation that failed and a user-readable message.
type Error struct {
	Kind    error
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Reason returns the message meant for the user, without operation or cause.
func (e *Error) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) *Error {
	return &Error{Kind: ErrPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Busy(format string, args ...any) *Error {
	return &Error{Kind: ErrBusy, Message: fmt.Sprintf(format, args...)}
}

func Timeout(op string, cause error) *Error {
	return &Error{Kind: ErrTimeout, Op: op, Cause: cause}
}

type reasoner interface {
	Reason() string
}

// UserMessage renders err for display. Errors that carry a reason keep it;
// anything else is reported as a generic failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var r reasoner
	if !errors.As(err, &r) {
		return "Something went wrong: " + err.Error()
	}
	if errors.Is(err, ErrTransport) {
		return "Backend unavailable: " + r.Reason()
	}
	return r.Reason()
}
