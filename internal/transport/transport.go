// Package transport is the command/event boundary between the client core
// and the backend: request/response commands plus named event channels.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"proof/internal/apperrors"
)

// Transport is what the client side sees of the backend.
type Transport interface {
	// Invoke sends command with args and decodes the result into out (which
	// may be nil when the command returns nothing).
	Invoke(ctx context.Context, command string, args any, out any) error
	// Listen registers handler for event. Events published after Listen
	// returns are delivered in publication order until the subscription is
	// closed.
	Listen(event string, handler EventHandler) (Subscription, error)
}

// EventHandler receives the JSON payload of one event ("null" for none).
type EventHandler func(payload json.RawMessage)

// Subscription is released with Close. Close is idempotent.
type Subscription interface {
	Close()
}

// Emitter is what the backend uses to publish events.
type Emitter interface {
	Emit(event string, payload any) error
}

// Error codes carried by RemoteError.
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeUnavailable      = "unavailable"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal"
	CodeUnknownCommand   = "unknown_command"
)

// RemoteError is a failure reported across the transport.
type RemoteError struct {
	Command string `json:"command"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Command == "" {
		return e.Message
	}
	return e.Command + ": " + e.Message
}

// Is lets callers test a RemoteError against the apperrors kinds.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case apperrors.ErrValidation:
		return e.Code == CodeValidation
	case apperrors.ErrNotFound:
		return e.Code == CodeNotFound
	case apperrors.ErrPermissionDenied:
		return e.Code == CodePermissionDenied
	case apperrors.ErrTimeout:
		return e.Code == CodeTimeout
	case apperrors.ErrTransport:
		switch e.Code {
		case CodeUnavailable, CodeTimeout, CodeInternal, CodeUnknownCommand:
			return true
		}
	}
	return false
}

// CodeOf classifies err using the apperrors kinds.
func CodeOf(err error) string {
	var re *RemoteError
	switch {
	case errors.As(err, &re):
		return re.Code
	case errors.Is(err, apperrors.ErrValidation):
		return CodeValidation
	case errors.Is(err, apperrors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, apperrors.ErrTransport):
		return CodeUnavailable
	}
	return CodeInternal
}

// Reason extracts the user-facing message of err.
func Reason(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return ae.Reason()
	}
	return err.Error()
}

func (e *RemoteError) Reason() string {
	return e.Message
}
