// Package ollama talks to a local Ollama server over its HTTP API and can
// start the server process when it is not running.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeInvalidResponse
	ErrTypeSpawnFailed
	ErrTypeStreamAborted
)

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches on Type so callers can compare against the sentinels.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// Sentinels for errors.Is; they match any ClientError of the same type.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
	ErrSpawnFailed   = &ClientError{Type: ErrTypeSpawnFailed, Message: "failed to start ollama"}
	ErrStreamAborted = &ClientError{Type: ErrTypeStreamAborted, Message: "stream ended before completion"}
)

type Config struct {
	BaseURL string
	// Binary is the executable started by EnsureRunning.
	Binary string
	// HealthTimeout bounds the readiness probe.
	HealthTimeout time.Duration
	// StartupWait bounds how long EnsureRunning polls after spawning.
	StartupWait time.Duration
	// RequestTimeout bounds non-streaming requests. Pulls and streams are
	// bounded by the caller's context instead.
	RequestTimeout time.Duration
	Log            logger.Logger
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:11434",
		Binary:         "ollama",
		HealthTimeout:  2 * time.Second,
		StartupWait:    5 * time.Second,
		RequestTimeout: 2 * time.Minute,
	}
}

// Client handles communication with the Ollama API. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	// spawn starts the server process; replaced in tests.
	spawn func(ctx context.Context) error
}

func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}
	if cfg.StartupWait <= 0 {
		cfg.StartupWait = def.StartupWait
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	c := &Client{
		cfg: cfg,
		// No client-wide timeout: streams and pulls can legitimately run long.
		httpClient: &http.Client{},
	}
	c.spawn = c.startProcess
	return c
}

func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) logf(format string, args ...any) {
	if c.cfg.Log != nil {
		c.cfg.Log.Debug(fmt.Sprintf("ollama: "+format, args...))
	}
}

// IsRunning probes /api/tags with the health timeout.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// EnsureRunning starts `ollama serve` when the server does not answer and
// waits up to StartupWait for it. It returns nil once the process was spawned
// even if it is not ready yet, mirroring a best-effort start.
func (c *Client) EnsureRunning(ctx context.Context) error {
	if c.IsRunning(ctx) {
		return nil
	}
	c.logf("server not answering on %s, starting %s", c.cfg.BaseURL, c.cfg.Binary)
	if err := c.spawn(ctx); err != nil {
		return &ClientError{Type: ErrTypeSpawnFailed, Message: "failed to start ollama", Cause: err}
	}

	deadline := time.Now().Add(c.cfg.StartupWait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if c.IsRunning(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	c.logf("server spawned but not ready after %s", c.cfg.StartupWait)
	return nil
}

// ListModels returns installed models in the order the server reports them.
func (c *Client) ListModels(ctx context.Context) ([]Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "list models"); err != nil {
		return nil, err
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	for i := range result.Models {
		if result.Models[i].Name == "" {
			result.Models[i].Name = result.Models[i].Model
		}
	}
	return result.Models, nil
}

// Pull downloads a model and blocks until the server reports completion.
func (c *Client) Pull(ctx context.Context, model string) error {
	stream := false
	resp, err := c.do(ctx, http.MethodPost, "/api/pull", modelRequest{Model: model, Stream: &stream})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "pull "+model); err != nil {
		return err
	}
	var body apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: body.Error}
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, model string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodDelete, "/api/delete", modelRequest{Model: model})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "delete "+model)
}

// Generate runs a non-streaming completion and returns the full response.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req.Stream = false
	if req.Options.empty() {
		req.Options = nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/generate", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "generate"); err != nil {
		return "", err
	}
	var chunk GenerateChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if chunk.Error != "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: chunk.Error}
	}
	return chunk.Response, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeNotRunning, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeNotRunning, Message: "ollama is not reachable", Cause: err}
	}
	return resp, nil
}

func checkStatus(resp *http.Response, what string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := what + " failed: " + resp.Status
	var body apiError
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			msg = what + " failed: " + body.Error
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &ClientError{Type: ErrTypeModelNotFound, Message: msg}
	}
	return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
}
