// Package lifecycle checks, starts and manages models on the backend's
// Ollama server.
package lifecycle

import (
	"context"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"proof/internal/apperrors"
	"proof/internal/commands"
	"proof/internal/gate"
	"proof/internal/models"
	"proof/internal/transport"
)

// Status is the readiness shown to the user. Not being ready is a state,
// not an error.
type Status struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

type Client struct {
	t    transport.Transport
	gate *gate.Gate
	log  logger.Logger
}

func NewClient(t transport.Transport, g *gate.Gate, log logger.Logger) *Client {
	return &Client{t: t, gate: g, log: log}
}

// Status runs the health check through the gate.
func (c *Client) Status(ctx context.Context) Status {
	if err := c.check(ctx, gate.ActionHealth); err != nil {
		return Status{Reason: apperrors.UserMessage(err)}
	}
	var ok bool
	if err := c.t.Invoke(ctx, commands.OllamaHealth, nil, &ok); err != nil {
		c.debug("health check failed: " + err.Error())
		return Status{Reason: "Ollama is not reachable."}
	}
	if !ok {
		return Status{Reason: "Ollama is not running."}
	}
	return Status{Ready: true}
}

func (c *Client) Health(ctx context.Context) bool {
	return c.Status(ctx).Ready
}

// Ensure asks the backend to start Ollama if needed. It is a local action
// and is not gated. Failures are logged only.
func (c *Client) Ensure(ctx context.Context) {
	if err := c.t.Invoke(ctx, commands.OllamaEnsure, nil, nil); err != nil && c.log != nil {
		c.log.Warning("lifecycle: ensure ollama: " + err.Error())
	}
}

// Models lists the installed models in backend order.
func (c *Client) Models(ctx context.Context) ([]models.ModelTag, error) {
	if err := c.check(ctx, gate.ActionListModels); err != nil {
		return nil, err
	}
	var tags []models.ModelTag
	if err := c.t.Invoke(ctx, commands.ModelsList, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// List is Models reduced to the identifiers.
func (c *Client) List(ctx context.Context) ([]string, error) {
	tags, err := c.Models(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Model)
	}
	return names, nil
}

// Pull blocks until the model is downloaded.
func (c *Client) Pull(ctx context.Context, model string) error {
	model, err := requireModel(model)
	if err != nil {
		return err
	}
	if err := c.check(ctx, gate.ActionPull); err != nil {
		return err
	}
	return c.t.Invoke(ctx, commands.ModelPull, models.ModelRequest{Args: models.ModelArgs{Model: model}}, nil)
}

func (c *Client) Delete(ctx context.Context, model string) error {
	model, err := requireModel(model)
	if err != nil {
		return err
	}
	if err := c.check(ctx, gate.ActionDelete); err != nil {
		return err
	}
	return c.t.Invoke(ctx, commands.ModelDelete, models.ModelRequest{Args: models.ModelArgs{Model: model}}, nil)
}

func (c *Client) check(ctx context.Context, action gate.Action) error {
	if c.gate == nil {
		return nil
	}
	return c.gate.Check(ctx, action, "")
}

func (c *Client) debug(msg string) {
	if c.log != nil {
		c.log.Debug("lifecycle: " + msg)
	}
}

func requireModel(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", apperrors.Validation("model is required")
	}
	return model, nil
}
