package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type remote struct{ msg string }

func (r *remote) Error() string        { return "cmd: " + r.msg }
func (r *remote) Reason() string       { return r.msg }
func (r *remote) Is(target error) bool { return target == ErrTransport }

func TestError_KindsAndWrapping(t *testing.T) {
	err := fmt.Errorf("save: %w", Validation("temperature must be between %.1f and %.1f", 0.0, 2.0))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "temperature must be between 0.0 and 2.0", e.Reason())

	to := Timeout("generate_stream", context.DeadlineExceeded)
	assert.ErrorIs(t, to, ErrTimeout)
	assert.ErrorIs(t, to, context.DeadlineExceeded)
	assert.Equal(t, "generate_stream: timed out: context deadline exceeded", to.Error())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Parental lock is on", UserMessage(PermissionDenied("Parental lock is on")))
	assert.Equal(t, "Backend unavailable: ollama is not reachable", UserMessage(&remote{msg: "ollama is not reachable"}))
	assert.Equal(t, "Something went wrong: boom", UserMessage(errors.New("boom")))
}
