// Package gate decides whether a user action may reach the backend. Checks
// run in a fixed order: parental lock, network permission, kid-safe content.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"proof/internal/apperrors"
	"proof/internal/commands"
	"proof/internal/models"
	"proof/internal/state"
	"proof/internal/transport"
)

type Action string

const (
	ActionUnlock       Action = "unlock"
	ActionHealth       Action = "health"
	ActionListModels   Action = "list_models"
	ActionPull         Action = "pull"
	ActionDelete       Action = "delete"
	ActionGenerate     Action = "generate"
	ActionCheckUpdates Action = "check_updates"
	// ActionLocal covers edits that never leave the machine (settings,
	// sessions). Only the parental lock applies.
	ActionLocal Action = "local"
)

type Verdict int

const (
	Allow Verdict = iota
	Deny
	// Pending means the result exists but waits for parental approval.
	Pending
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Pending:
		return "pending"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

type Decision struct {
	Verdict Verdict
	Reason  string
}

func (d Decision) Allowed() bool { return d.Verdict == Allow }

// Err returns a PermissionDenied error for a Deny decision, nil otherwise.
func (d Decision) Err() error {
	if d.Verdict != Deny {
		return nil
	}
	return apperrors.PermissionDenied("%s", d.Reason)
}

func allow() Decision { return Decision{Verdict: Allow} }

func deny(reason string) Decision { return Decision{Verdict: Deny, Reason: reason} }

// Gate reads the policies from the state container. It never changes them.
type Gate struct {
	state *state.Container
	t     transport.Transport
	log   logger.Logger
}

func New(st *state.Container, t transport.Transport, log logger.Logger) *Gate {
	return &Gate{state: st, t: t, log: log}
}

// Evaluate returns the decision for action. prompt is only inspected for
// ActionGenerate. An error means the content check itself failed; the
// decision is Deny then.
func (g *Gate) Evaluate(ctx context.Context, action Action, prompt string) (Decision, error) {
	if lock := g.state.ParentLock(); lock.IsLocked && action != ActionUnlock {
		msg := lock.LockMessage
		if strings.TrimSpace(msg) == "" {
			msg = models.DefaultLockMessage
		}
		return g.denied(action, deny(msg)), nil
	}

	if d := checkNetwork(g.state.Network(), action); !d.Allowed() {
		return g.denied(action, d), nil
	}

	if action != ActionGenerate {
		return allow(), nil
	}
	kidSafe := g.state.KidSafe()
	if !kidSafe.FiltersContent() {
		return allow(), nil
	}
	if _, blocked := kidSafe.BlockedWordIn(prompt); blocked {
		return g.denied(action, deny("This message contains a word that is not allowed.")), nil
	}
	if len(kidSafe.AllowedTopics) == 0 {
		return allow(), nil
	}
	var ok bool
	if err := g.t.Invoke(ctx, commands.CheckKidSafeContent, models.ContentCheckArgs{Prompt: prompt}, &ok); err != nil {
		return deny("The content check is unavailable."), err
	}
	if !ok {
		return g.denied(action, deny("This message is outside the allowed topics: "+strings.Join(kidSafe.AllowedTopics, ", ")+".")), nil
	}
	return allow(), nil
}

// Check is Evaluate folded into a single error.
func (g *Gate) Check(ctx context.Context, action Action, prompt string) error {
	d, err := g.Evaluate(ctx, action, prompt)
	if err != nil {
		return err
	}
	return d.Err()
}

// Review applies the kid-safe output rules to a finished answer: truncation
// while kid-safe is on, and Pending when parental approval is required.
func (g *Gate) Review(text string) (string, Decision) {
	text = g.state.KidSafe().Truncate(text)
	if g.RequiresApproval() {
		return text, Decision{Verdict: Pending, Reason: "Waiting for a parent to approve this answer."}
	}
	return text, allow()
}

// RequiresApproval reports whether finished answers are held for a parent.
func (g *Gate) RequiresApproval() bool {
	k := g.state.KidSafe()
	return k.Enabled && k.RequireParentalApproval
}

// Truncate applies only the length limit.
func (g *Gate) Truncate(text string) string {
	return g.state.KidSafe().Truncate(text)
}

func checkNetwork(n models.NetworkSettings, action Action) Decision {
	var needs []models.PermissionType
	switch action {
	case ActionHealth, ActionListModels, ActionDelete, ActionGenerate:
		needs = []models.PermissionType{models.PermissionOllama}
	case ActionPull:
		needs = []models.PermissionType{models.PermissionOllama, models.PermissionModelDownloads}
	case ActionCheckUpdates:
		needs = []models.PermissionType{models.PermissionUpdateChecks}
	default:
		return allow()
	}
	if !n.OutboundConnectionsEnabled {
		return deny("Network access is disabled.")
	}
	for _, p := range needs {
		if !n.Allows(p) {
			return deny(networkReason(p))
		}
	}
	return allow()
}

func networkReason(p models.PermissionType) string {
	switch p {
	case models.PermissionOllama:
		return "Connections to Ollama are disabled."
	case models.PermissionModelDownloads:
		return "Model downloads are disabled."
	case models.PermissionUpdateChecks:
		return "Update checks are disabled."
	}
	return "Network access is disabled."
}

func (g *Gate) denied(action Action, d Decision) Decision {
	if g.log != nil {
		g.log.Debug(fmt.Sprintf("gate: %s denied: %s", action, d.Reason))
	}
	return d
}
