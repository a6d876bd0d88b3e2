package mocks

import (
	"context"

	"proof/internal/ollama"
)

type OllamaClientMock struct {
	IsRunningFunc      func(ctx context.Context) bool
	EnsureRunningFunc  func(ctx context.Context) error
	ListModelsFunc     func(ctx context.Context) ([]ollama.Tag, error)
	PullFunc           func(ctx context.Context, model string) error
	DeleteFunc         func(ctx context.Context, model string) error
	GenerateFunc       func(ctx context.Context, req ollama.GenerateRequest) (string, error)
	GenerateStreamFunc func(ctx context.Context, req ollama.GenerateRequest, onToken ollama.TokenFunc) error

	EnsureCalls int
}

func (m *OllamaClientMock) IsRunning(ctx context.Context) bool {
	if m.IsRunningFunc != nil {
		return m.IsRunningFunc(ctx)
	}
	return true
}

func (m *OllamaClientMock) EnsureRunning(ctx context.Context) error {
	m.EnsureCalls++
	if m.EnsureRunningFunc != nil {
		return m.EnsureRunningFunc(ctx)
	}
	return nil
}

func (m *OllamaClientMock) ListModels(ctx context.Context) ([]ollama.Tag, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []ollama.Tag{}, nil
}

func (m *OllamaClientMock) Pull(ctx context.Context, model string) error {
	if m.PullFunc != nil {
		return m.PullFunc(ctx, model)
	}
	return nil
}

func (m *OllamaClientMock) Delete(ctx context.Context, model string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, model)
	}
	return nil
}

func (m *OllamaClientMock) Generate(ctx context.Context, req ollama.GenerateRequest) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

func (m *OllamaClientMock) GenerateStream(ctx context.Context, req ollama.GenerateRequest, onToken ollama.TokenFunc) error {
	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, req, onToken)
	}
	return nil
}
