// Package chat drives the UI: it owns the visible state, runs user actions
// through the lifecycle, generation and store clients, and publishes every
// change to the frontend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"proof/internal/apperrors"
	"proof/internal/events"
	"proof/internal/gate"
	"proof/internal/generation"
	"proof/internal/lifecycle"
	"proof/internal/models"
	"proof/internal/state"
	"proof/internal/stores"
)

// EmitFunc publishes a payload to the frontend. events.Emit in production.
type EmitFunc func(ctx context.Context, name string, payload any)

type Deps struct {
	State      *state.Container
	Gate       *gate.Gate
	Lifecycle  *lifecycle.Client
	Generation *generation.Client
	Sessions   *stores.SessionStore
	Emit       EmitFunc
	Now        func() time.Time
	Log        logger.Logger
}

type Controller struct {
	state    *state.Container
	gate     *gate.Gate
	life     *lifecycle.Client
	gen      *generation.Client
	sessions *stores.SessionStore
	emit     EmitFunc
	now      func() time.Time
	log      logger.Logger

	mu   sync.Mutex
	view View
	// held is a finished answer waiting for parental approval.
	held string
}

func NewController(d Deps) *Controller {
	if d.Emit == nil {
		d.Emit = func(context.Context, string, any) {}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Controller{
		state:    d.State,
		gate:     d.Gate,
		life:     d.Lifecycle,
		gen:      d.Generation,
		sessions: d.Sessions,
		emit:     d.Emit,
		now:      d.Now,
		log:      d.Log,
		view: View{
			Models:   []string{},
			Sessions: []models.ChatSession{},
			Settings: models.DefaultSettings(),
			KidSafe:  models.DefaultKidSafeSettings(),
			Network:  models.DefaultNetworkSettings(),
		},
	}
}

// View returns a snapshot of the UI state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Startup brings the UI to its first usable state: start Ollama, check it,
// load the models, settings and sessions. Nothing here fails the app; each
// problem becomes a notice.
func (c *Controller) Startup(ctx context.Context) {
	c.life.Ensure(ctx)

	if err := c.state.Load(ctx); err != nil {
		c.notify(ctx, events.NewWarn("Could not load settings: "+apperrors.UserMessage(err)))
	}
	c.syncPolicies()

	status := c.life.Status(ctx)
	c.update(ctx, func(v *View) {
		v.Ready = status.Ready
		v.Status = statusText(status)
	})

	if status.Ready {
		if err := c.RefreshModels(ctx); err != nil {
			c.notify(ctx, events.NewWarn("Could not list models: "+apperrors.UserMessage(err)))
		}
	}

	sessions, err := c.sessions.List(ctx)
	if err != nil {
		c.debug("sessions unavailable: " + err.Error())
		sessions = []models.ChatSession{}
	}
	c.update(ctx, func(v *View) { v.Sessions = sessions })
}

// RefreshModels reloads the installed models and keeps the selection valid:
// the current choice if still installed, else the configured default, else
// the first model listed.
func (c *Controller) RefreshModels(ctx context.Context) error {
	names, err := c.life.List(ctx)
	if err != nil {
		return err
	}
	preferred := c.state.Settings().DefaultModel
	c.update(ctx, func(v *View) {
		v.Models = names
		v.Model = pickModel(names, v.Model, preferred)
	})
	return nil
}

func pickModel(installed []string, current, preferred string) string {
	for _, candidate := range []string{current, preferred} {
		if candidate != "" && slices.Contains(installed, candidate) {
			return candidate
		}
	}
	if len(installed) > 0 {
		return installed[0]
	}
	return preferred
}

// CheckHealth re-runs the readiness check.
func (c *Controller) CheckHealth(ctx context.Context) bool {
	status := c.life.Status(ctx)
	c.update(ctx, func(v *View) {
		v.Ready = status.Ready
		v.Status = statusText(status)
	})
	return status.Ready
}

func (c *Controller) SelectModel(ctx context.Context, model string) {
	c.update(ctx, func(v *View) { v.Model = strings.TrimSpace(model) })
}

func (c *Controller) SetPrompt(ctx context.Context, prompt string) {
	c.update(ctx, func(v *View) { v.Prompt = prompt })
}

// Send runs a blocking generation for prompt and returns the answer as shown.
func (c *Controller) Send(ctx context.Context, prompt string) (string, error) {
	if err := c.idle(ctx); err != nil {
		return "", err
	}
	args := c.argsFor(ctx, prompt)
	c.update(ctx, func(v *View) { v.Busy = true })

	text, err := c.gen.Generate(ctx, args)
	if err != nil {
		c.update(ctx, func(v *View) { v.Busy = false })
		c.fail(ctx, "Generation failed", err)
		return "", err
	}
	return c.finishAnswer(ctx, text), nil
}

// Stream starts a streamed generation. The returned channel closes once the
// final answer has been published.
func (c *Controller) Stream(ctx context.Context, prompt string) (<-chan struct{}, error) {
	if err := c.idle(ctx); err != nil {
		return nil, err
	}
	args := c.argsFor(ctx, prompt)
	hold := c.gate.RequiresApproval()

	c.update(ctx, func(v *View) {
		v.Busy = true
		v.Streaming = true
		v.Answer = ""
	})

	onToken := func(_ string, text string) {
		if hold {
			return
		}
		shown := c.gate.Truncate(text)
		c.update(ctx, func(v *View) { v.Answer = shown })
	}

	s, err := c.gen.Stream(ctx, args, onToken)
	if err != nil {
		c.update(ctx, func(v *View) {
			v.Busy = false
			v.Streaming = false
		})
		c.fail(ctx, "Generation failed", err)
		return nil, err
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		<-s.Done()
		if err := s.Err(); err != nil {
			partial := ""
			if !hold {
				partial = c.gate.Truncate(s.Text())
			}
			c.update(ctx, func(v *View) {
				v.Busy = false
				v.Streaming = false
				v.Answer = partial
			})
			c.fail(ctx, "Generation failed", err)
			return
		}
		c.finishAnswer(ctx, s.Text())
	}()
	return finished, nil
}

// idle rejects a send while another generation runs, leaving its view alone.
func (c *Controller) idle(ctx context.Context) error {
	if !c.gen.InFlight() {
		return nil
	}
	err := apperrors.Busy("a response is already being generated")
	c.fail(ctx, "Generation failed", err)
	return err
}

func (c *Controller) argsFor(ctx context.Context, prompt string) models.GenerateArgs {
	c.mu.Lock()
	model := c.view.Model
	c.mu.Unlock()
	c.SetPrompt(ctx, prompt)
	return models.GenerateArgsFrom(c.state.Settings(), model, prompt)
}

// finishAnswer applies the output rules to a completed answer. A held
// answer is not shown until a parent approves it.
func (c *Controller) finishAnswer(ctx context.Context, text string) string {
	shown, d := c.gate.Review(text)
	if d.Verdict == gate.Pending {
		c.mu.Lock()
		c.held = shown
		c.mu.Unlock()
		c.update(ctx, func(v *View) {
			v.Busy = false
			v.Streaming = false
			v.Answer = ""
			v.AwaitingApproval = true
		})
		c.notify(ctx, events.NewWarn(d.Reason))
		return ""
	}
	c.update(ctx, func(v *View) {
		v.Busy = false
		v.Streaming = false
		v.Answer = shown
		v.AwaitingApproval = false
	})
	return shown
}

// Approve releases the held answer when password is the parent's.
func (c *Controller) Approve(ctx context.Context, password string) (bool, error) {
	c.mu.Lock()
	waiting := c.view.AwaitingApproval
	c.mu.Unlock()
	if !waiting {
		return false, apperrors.Validation("no answer is waiting for approval")
	}
	ok, err := c.state.VerifyParentPassword(ctx, password)
	if err != nil {
		c.fail(ctx, "Approval failed", err)
		return false, err
	}
	if !ok {
		c.notify(ctx, events.NewWarn("Incorrect password."))
		return false, nil
	}
	c.mu.Lock()
	answer := c.held
	c.held = ""
	c.mu.Unlock()
	c.update(ctx, func(v *View) {
		v.Answer = answer
		v.AwaitingApproval = false
	})
	c.notify(ctx, events.NewSuccess("Answer approved."))
	return true, nil
}

// Reject discards the held answer.
func (c *Controller) Reject(ctx context.Context) {
	c.mu.Lock()
	c.held = ""
	c.mu.Unlock()
	c.update(ctx, func(v *View) { v.AwaitingApproval = false })
}

// PullModel downloads model and refreshes the list.
func (c *Controller) PullModel(ctx context.Context, model string) error {
	c.notify(ctx, events.NewInfo(fmt.Sprintf("Downloading %s...", strings.TrimSpace(model))))
	if err := c.life.Pull(ctx, model); err != nil {
		c.fail(ctx, "Download failed", err)
		return err
	}
	if err := c.RefreshModels(ctx); err != nil {
		c.fail(ctx, "Could not list models", err)
		return err
	}
	c.notify(ctx, events.NewSuccess("Model ready: "+strings.TrimSpace(model)).With("model", strings.TrimSpace(model)))
	return nil
}

func (c *Controller) DeleteModel(ctx context.Context, model string) error {
	if err := c.life.Delete(ctx, model); err != nil {
		c.fail(ctx, "Delete failed", err)
		return err
	}
	if err := c.RefreshModels(ctx); err != nil {
		c.fail(ctx, "Could not list models", err)
		return err
	}
	return nil
}

// SaveSession stores the current prompt and answer as a new session.
func (c *Controller) SaveSession(ctx context.Context, title string) (models.ChatSession, error) {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not save session", err)
		return models.ChatSession{}, err
	}
	v := c.View()
	if strings.TrimSpace(v.Prompt) == "" && strings.TrimSpace(v.Answer) == "" {
		return models.ChatSession{}, apperrors.Validation("nothing to save")
	}
	session, err := stores.NewSession(title, v.Prompt, v.Answer, c.now())
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("new session: %w", err)
	}
	if err := c.sessions.Save(ctx, session); err != nil {
		c.fail(ctx, "Could not save session", err)
		return models.ChatSession{}, err
	}
	c.reloadSessions(ctx)
	c.notify(ctx, events.NewSuccess("Session saved.").With("session_id", session.ID))
	return session, nil
}

// LoadSession restores a session: its first user message becomes the
// prompt and its final assistant reply the answer.
func (c *Controller) LoadSession(ctx context.Context, id string) (models.ChatSession, error) {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not load session", err)
		return models.ChatSession{}, err
	}
	session, err := c.sessions.Load(ctx, id)
	if err != nil {
		c.fail(ctx, "Could not load session", err)
		return models.ChatSession{}, err
	}
	prompt, answer := "", ""
	if m, ok := session.FirstUserMessage(); ok {
		prompt = m.Content
	}
	if m, ok := session.LastAssistantReply(); ok {
		answer = m.Content
	}
	c.mu.Lock()
	c.held = ""
	c.mu.Unlock()
	c.update(ctx, func(v *View) {
		v.Prompt = prompt
		v.Answer = answer
		v.AwaitingApproval = false
	})
	return session, nil
}

func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not delete session", err)
		return err
	}
	if err := c.sessions.Delete(ctx, id); err != nil {
		c.fail(ctx, "Could not delete session", err)
		return err
	}
	c.reloadSessions(ctx)
	return nil
}

func (c *Controller) reloadSessions(ctx context.Context) {
	sessions, err := c.sessions.List(ctx)
	if err != nil {
		c.debug("reload sessions: " + err.Error())
		return
	}
	c.update(ctx, func(v *View) { v.Sessions = sessions })
}

// Unlock releases the parental lock. A wrong password is not an error.
func (c *Controller) Unlock(ctx context.Context, password string) (bool, error) {
	ok, err := c.state.Unlock(ctx, password)
	if err != nil {
		c.fail(ctx, "Unlock failed", err)
		return false, err
	}
	c.syncPolicies()
	c.publish(ctx)
	if !ok {
		c.notify(ctx, events.NewWarn("Incorrect password."))
	}
	return ok, nil
}

// SetParentLock engages the lock, storing args.Password when one is given.
func (c *Controller) SetParentLock(ctx context.Context, args models.SetParentLockArgs) error {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not lock", err)
		return err
	}
	if err := c.state.SetParentLock(ctx, args); err != nil {
		c.fail(ctx, "Could not lock", err)
		return err
	}
	c.syncPolicies()
	c.publish(ctx)
	return nil
}

func (c *Controller) SaveSettings(ctx context.Context, s models.Settings) error {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not save settings", err)
		return err
	}
	if err := c.state.SaveSettings(ctx, s); err != nil {
		c.fail(ctx, "Could not save settings", err)
		return err
	}
	c.syncPolicies()
	c.publish(ctx)
	return nil
}

func (c *Controller) SaveKidSafe(ctx context.Context, k models.KidSafeSettings) error {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not save kid-safe settings", err)
		return err
	}
	if err := c.state.SaveKidSafe(ctx, k); err != nil {
		c.fail(ctx, "Could not save kid-safe settings", err)
		return err
	}
	c.syncPolicies()
	c.publish(ctx)
	return nil
}

func (c *Controller) SaveNetwork(ctx context.Context, n models.NetworkSettings) error {
	if err := c.gate.Check(ctx, gate.ActionLocal, ""); err != nil {
		c.fail(ctx, "Could not save network settings", err)
		return err
	}
	if err := c.state.SaveNetwork(ctx, n); err != nil {
		c.fail(ctx, "Could not save network settings", err)
		return err
	}
	c.syncPolicies()
	c.publish(ctx)
	return nil
}

// syncPolicies copies the held singletons into the view without publishing.
func (c *Controller) syncPolicies() {
	lock := c.state.ParentLock()
	settings := c.state.Settings()
	kidSafe := c.state.KidSafe()
	network := c.state.Network()
	c.mu.Lock()
	c.view.Settings = settings
	c.view.KidSafe = kidSafe
	c.view.Network = network
	c.view.Locked = lock.IsLocked
	c.view.LockMessage = ""
	if lock.IsLocked {
		c.view.LockMessage = lock.LockMessage
		if strings.TrimSpace(c.view.LockMessage) == "" {
			c.view.LockMessage = models.DefaultLockMessage
		}
	}
	c.mu.Unlock()
}

func (c *Controller) update(ctx context.Context, fn func(v *View)) {
	c.mu.Lock()
	fn(&c.view)
	snapshot := c.view.clone()
	c.mu.Unlock()
	c.emit(ctx, events.UIState, snapshot)
}

func (c *Controller) publish(ctx context.Context) {
	c.emit(ctx, events.UIState, c.View())
}

func (c *Controller) notify(ctx context.Context, n events.Notice) {
	c.emit(ctx, events.UINotice, n)
}

// fail reports err as an error notice. Busy and denied actions are warnings.
func (c *Controller) fail(ctx context.Context, what string, err error) {
	msg := what + ": " + apperrors.UserMessage(err)
	switch {
	case errors.Is(err, apperrors.ErrPermissionDenied), errors.Is(err, apperrors.ErrBusy):
		c.notify(ctx, events.NewWarn(apperrors.UserMessage(err)))
	default:
		if c.log != nil {
			c.log.Error("chat: " + what + ": " + err.Error())
		}
		c.notify(ctx, events.NewError(msg))
	}
}

func (c *Controller) debug(msg string) {
	if c.log != nil {
		c.log.Debug("chat: " + msg)
	}
}

func statusText(s lifecycle.Status) string {
	if s.Ready {
		return "Ollama is running."
	}
	return s.Reason
}
