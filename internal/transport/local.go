package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// CommandFunc handles one command. args is the raw JSON argument object.
type CommandFunc func(ctx context.Context, args json.RawMessage) (any, error)

type commandSpec struct {
	fn         CommandFunc
	timeout    time.Duration
	noTimeout  bool
	idempotent bool
}

// CommandOption tunes how Local calls a command.
type CommandOption func(*commandSpec)

// WithTimeout overrides the default call timeout.
func WithTimeout(d time.Duration) CommandOption {
	return func(s *commandSpec) { s.timeout = d }
}

// Unbounded disables the call timeout. Use for commands bounded elsewhere.
func Unbounded() CommandOption {
	return func(s *commandSpec) { s.noTimeout = true }
}

// Idempotent marks a read that may be retried when the backend is unavailable.
func Idempotent() CommandOption {
	return func(s *commandSpec) { s.idempotent = true }
}

// Router maps command names to handlers.
type Router struct {
	mu       sync.RWMutex
	commands map[string]commandSpec
}

func NewRouter() *Router {
	return &Router{commands: make(map[string]commandSpec)}
}

// Handle registers fn under name, replacing any previous handler.
func (r *Router) Handle(name string, fn CommandFunc, opts ...CommandOption) {
	spec := commandSpec{fn: fn}
	for _, opt := range opts {
		opt(&spec)
	}
	r.mu.Lock()
	r.commands[name] = spec
	r.mu.Unlock()
}

func (r *Router) lookup(name string) (commandSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.commands[name]
	return spec, ok
}

// Commands lists the registered command names, sorted.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type LocalConfig struct {
	CallTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Log         logger.Logger
}

// Local is an in-process Transport: commands go through a Router and events
// through a Bus. Arguments and results are JSON-encoded on the way through
// so both sides only share the wire shapes.
type Local struct {
	router *Router
	bus    *Bus
	cfg    LocalConfig
}

func NewLocal(router *Router, bus *Bus, cfg LocalConfig) *Local {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Local{router: router, bus: bus, cfg: cfg}
}

func (l *Local) Listen(event string, handler EventHandler) (Subscription, error) {
	return l.bus.Listen(event, handler)
}

func (l *Local) Invoke(ctx context.Context, command string, args any, out any) error {
	spec, ok := l.router.lookup(command)
	if !ok {
		return &RemoteError{Command: command, Code: CodeUnknownCommand, Message: "unknown command"}
	}

	raw, err := encodeArgs(args)
	if err != nil {
		return &RemoteError{Command: command, Code: CodeValidation, Message: err.Error()}
	}

	attempts := 1
	if spec.idempotent {
		attempts += l.cfg.MaxRetries
	}

	var result any
	for attempt := 1; ; attempt++ {
		result, err = l.call(ctx, command, spec, raw)
		if err == nil {
			break
		}
		var re *RemoteError
		retryable := errors.As(err, &re) && re.Code == CodeUnavailable
		if !retryable || attempt >= attempts {
			return err
		}
		l.debugf("%s unavailable (attempt %d/%d), retrying in %s", command, attempt, attempts, l.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			return &RemoteError{Command: command, Code: CodeTimeout, Message: ctx.Err().Error()}
		case <-time.After(l.cfg.RetryDelay):
		}
	}

	if out == nil || result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return &RemoteError{Command: command, Code: CodeInternal, Message: "encode result: " + err.Error()}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{Command: command, Code: CodeInternal, Message: "decode result: " + err.Error()}
	}
	return nil
}

func (l *Local) call(ctx context.Context, command string, spec commandSpec, raw json.RawMessage) (any, error) {
	callCtx := ctx
	if !spec.noTimeout {
		timeout := l.cfg.CallTimeout
		if spec.timeout > 0 {
			timeout = spec.timeout
		}
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := spec.fn(callCtx, raw)
	if err == nil {
		return result, nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		out := *re
		if out.Command == "" {
			out.Command = command
		}
		return nil, &out
	}
	code := CodeOf(err)
	if callCtx.Err() != nil && code == CodeInternal {
		code = CodeTimeout
	}
	return nil, &RemoteError{Command: command, Code: code, Message: Reason(err)}
}

func (l *Local) debugf(format string, args ...any) {
	if l.cfg.Log != nil {
		l.cfg.Log.Debug(fmt.Sprintf("transport: "+format, args...))
	}
}

func encodeArgs(args any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return data, nil
}

// Decode unmarshals command arguments, rejecting malformed payloads.
func Decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &RemoteError{Code: CodeValidation, Message: "invalid arguments: " + err.Error()}
	}
	return nil
}
