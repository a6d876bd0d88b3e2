// Package generation issues generation requests and owns the client side of
// the streaming protocol: subscribe to the token and done events, start the
// stream, append tokens in arrival order, and release both subscriptions on
// every way out.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"proof/internal/apperrors"
	"proof/internal/commands"
	"proof/internal/events"
	"proof/internal/gate"
	"proof/internal/models"
	"proof/internal/transport"
)

type State int

const (
	Idle State = iota
	Requested
	Streaming
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) Terminal() bool { return s == Done || s == Failed }

// ErrStreamClosed reports a stream whose call returned without a done event
// and whose events stopped.
var ErrStreamClosed = errors.New("stream closed before completion")

type Config struct {
	// IdleTimeout fails a stream that sees no event for this long. Zero
	// disables the watchdog.
	IdleTimeout time.Duration
	Log         logger.Logger
}

// Client allows at most one request in flight. A second Stream or Generate
// while one runs fails with apperrors.ErrBusy; nothing is pre-empted.
type Client struct {
	t    transport.Transport
	gate *gate.Gate
	cfg  Config

	mu       sync.Mutex
	inFlight bool
}

func NewClient(t transport.Transport, g *gate.Gate, cfg Config) *Client {
	return &Client{t: t, gate: g, cfg: cfg}
}

func (c *Client) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Client) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return apperrors.Busy("a response is still being generated")
	}
	c.inFlight = true
	return nil
}

func (c *Client) release() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// begin validates args, takes the in-flight slot and runs the gate. On
// error the slot is free again.
func (c *Client) begin(ctx context.Context, args models.GenerateArgs) error {
	if strings.TrimSpace(args.Prompt) == "" {
		return apperrors.Validation("prompt is required")
	}
	if strings.TrimSpace(args.Model) == "" {
		return apperrors.Validation("choose a model first")
	}
	if err := c.acquire(); err != nil {
		return err
	}
	if c.gate != nil {
		if err := c.gate.Check(ctx, gate.ActionGenerate, args.Prompt); err != nil {
			c.release()
			return err
		}
	}
	return nil
}

// Generate is the blocking form: one round trip, no intermediate states.
func (c *Client) Generate(ctx context.Context, args models.GenerateArgs) (string, error) {
	if err := c.begin(ctx, args); err != nil {
		return "", err
	}
	defer c.release()

	var text string
	if err := c.t.Invoke(ctx, commands.GenerateText, models.GenerateRequest{Args: args}, &text); err != nil {
		c.logf("generate_text failed: %v", err)
		return "", err
	}
	return text, nil
}

// TokenFunc observes each fragment together with the text accumulated so far.
type TokenFunc func(fragment, text string)

// Stream starts a streamed generation and returns once the stream is
// running. Validation and gate failures are returned before any state
// change. onToken may be nil.
func (c *Client) Stream(ctx context.Context, args models.GenerateArgs, onToken TokenFunc) (*Stream, error) {
	if err := c.begin(ctx, args); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Stream{
		client:   c,
		state:    Requested,
		onToken:  onToken,
		done:     make(chan struct{}),
		activity: make(chan struct{}, 1),
		cancel:   cancel,
	}

	if err := s.subscribe(); err != nil {
		s.finish(Failed, fmt.Errorf("subscribe: %w", err))
		return s, err
	}

	s.mu.Lock()
	s.state = Streaming
	s.mu.Unlock()

	go s.watch(c.cfg.IdleTimeout)
	go s.run(runCtx, args)
	return s, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.cfg.Log != nil {
		c.cfg.Log.Warning(fmt.Sprintf("generation: "+format, args...))
	}
}

// Stream is one streamed generation.
type Stream struct {
	client  *Client
	onToken TokenFunc

	mu    sync.Mutex
	state State
	text  strings.Builder
	err   error

	subs        []transport.Subscription
	releaseOnce sync.Once
	done        chan struct{}
	activity    chan struct{}
	cancel      context.CancelFunc
}

// subscribe registers the token and done handlers. It runs before the
// stream is started so no early event is missed.
func (s *Stream) subscribe() error {
	for _, l := range []struct {
		event   string
		handler transport.EventHandler
	}{
		{events.LLMToken, s.handleToken},
		{events.LLMDone, s.handleDone},
	} {
		sub, err := s.client.t.Listen(l.event, l.handler)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

func (s *Stream) run(ctx context.Context, args models.GenerateArgs) {
	err := s.client.t.Invoke(ctx, commands.GenerateStream, models.GenerateRequest{Args: args}, nil)
	if err != nil {
		s.client.logf("generate_stream failed: %v", err)
		s.finish(Failed, err)
		return
	}
	// Some transports deliver events after the call returns, so a missing
	// done is left to the watchdog. Without one it is an abnormal closure.
	if s.client.cfg.IdleTimeout <= 0 {
		s.finish(Failed, ErrStreamClosed)
	}
}

func (s *Stream) handleToken(payload json.RawMessage) {
	var tok events.Token
	if err := json.Unmarshal(payload, &tok); err != nil {
		s.client.logf("dropping malformed token event: %v", err)
		return
	}
	s.mu.Lock()
	if s.state != Streaming {
		s.mu.Unlock()
		return
	}
	s.text.WriteString(tok.Token)
	text := s.text.String()
	s.mu.Unlock()

	select {
	case s.activity <- struct{}{}:
	default:
	}
	if s.onToken != nil {
		s.onToken(tok.Token, text)
	}
}

func (s *Stream) handleDone(json.RawMessage) {
	s.finish(Done, nil)
}

func (s *Stream) watch(idle time.Duration) {
	if idle <= 0 {
		return
	}
	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-s.activity:
			timer.Reset(idle)
		case <-timer.C:
			s.finish(Failed, apperrors.Timeout(commands.GenerateStream, fmt.Errorf("no response for %s", idle)))
			return
		}
	}
}

// finish moves the stream to a terminal state once. Later calls are ignored.
func (s *Stream) finish(state State, err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.err = err
	s.mu.Unlock()

	s.releaseOnce.Do(func() {
		for _, sub := range s.subs {
			sub.Close()
		}
		s.cancel()
		s.client.release()
		close(s.done)
	})
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text is the answer accumulated so far. A failed stream keeps its partial
// text.
func (s *Stream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the stream reaches Done or Failed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the stream ends or ctx is done.
func (s *Stream) Wait(ctx context.Context) (string, error) {
	select {
	case <-s.done:
		return s.Text(), s.Err()
	case <-ctx.Done():
		return s.Text(), ctx.Err()
	}
}
