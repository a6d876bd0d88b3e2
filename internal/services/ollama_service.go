package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"proof/internal/apperrors"
	"proof/internal/events"
	"proof/internal/models"
	"proof/internal/ollama"
	"proof/internal/transport"
)

// OllamaClient is the part of *ollama.Client the service needs.
type OllamaClient interface {
	IsRunning(ctx context.Context) bool
	EnsureRunning(ctx context.Context) error
	ListModels(ctx context.Context) ([]ollama.Tag, error)
	Pull(ctx context.Context, model string) error
	Delete(ctx context.Context, model string) error
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, error)
	GenerateStream(ctx context.Context, req ollama.GenerateRequest, onToken ollama.TokenFunc) error
}

type OllamaService interface {
	Startup(ctx context.Context)
	Health(ctx context.Context) bool
	Ensure(ctx context.Context) error
	List(ctx context.Context) ([]models.ModelTag, error)
	Pull(ctx context.Context, model string) error
	Delete(ctx context.Context, model string) error
	GenerateText(ctx context.Context, args models.GenerateArgs) (string, error)
	// GenerateStream publishes one events.LLMToken per fragment and a final
	// events.LLMDone, then returns. On error no LLMDone is published.
	GenerateStream(ctx context.Context, args models.GenerateArgs) error
}

type ollamaService struct {
	client  OllamaClient
	chat    model.BaseChatModel
	emitter transport.Emitter
	log     logger.Logger
	ctx     context.Context
}

func NewOllamaService(client OllamaClient, emitter transport.Emitter, log logger.Logger) OllamaService {
	return &ollamaService{
		client:  client,
		chat:    ollama.NewChatModel(client),
		emitter: emitter,
		log:     log,
	}
}

func (s *ollamaService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *ollamaService) Health(ctx context.Context) bool {
	return s.client.IsRunning(ctx)
}

func (s *ollamaService) Ensure(ctx context.Context) error {
	if err := s.client.EnsureRunning(ctx); err != nil {
		return remoteOllamaError(err)
	}
	return nil
}

func (s *ollamaService) List(ctx context.Context) ([]models.ModelTag, error) {
	s.ensureQuietly(ctx)
	tags, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, remoteOllamaError(err)
	}
	out := make([]models.ModelTag, 0, len(tags))
	for _, t := range tags {
		tag := models.ModelTag{Model: t.Name}
		if t.Size > 0 {
			size := t.Size
			tag.Size = &size
		}
		out = append(out, tag)
	}
	return out, nil
}

func (s *ollamaService) Pull(ctx context.Context, model string) error {
	model, err := requireModel(model)
	if err != nil {
		return err
	}
	s.ensureQuietly(ctx)
	if err := s.client.Pull(ctx, model); err != nil {
		return remoteOllamaError(err)
	}
	s.info("pulled " + model)
	return nil
}

func (s *ollamaService) Delete(ctx context.Context, model string) error {
	model, err := requireModel(model)
	if err != nil {
		return err
	}
	if err := s.client.Delete(ctx, model); err != nil {
		return remoteOllamaError(err)
	}
	s.info("deleted " + model)
	return nil
}

func (s *ollamaService) GenerateText(ctx context.Context, args models.GenerateArgs) (string, error) {
	input, opts, err := chatRequest(args)
	if err != nil {
		return "", err
	}
	s.ensureQuietly(ctx)
	msg, err := s.chat.Generate(ctx, input, opts...)
	if err != nil {
		return "", remoteOllamaError(err)
	}
	return msg.Content, nil
}

func (s *ollamaService) GenerateStream(ctx context.Context, args models.GenerateArgs) error {
	input, opts, err := chatRequest(args)
	if err != nil {
		return err
	}
	s.ensureQuietly(ctx)
	reader, err := s.chat.Stream(ctx, input, opts...)
	if err != nil {
		return remoteOllamaError(err)
	}
	defer reader.Close()
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return remoteOllamaError(err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if err := s.emitter.Emit(events.LLMToken, events.Token{Token: msg.Content}); err != nil {
			return err
		}
	}
	return s.emitter.Emit(events.LLMDone, nil)
}

// ensureQuietly starts the server before commands that need it. A failure
// surfaces on the command that follows.
func (s *ollamaService) ensureQuietly(ctx context.Context) {
	if err := s.client.EnsureRunning(ctx); err != nil && s.log != nil {
		s.log.Warning("ollama: ensure running: " + err.Error())
	}
}

func (s *ollamaService) info(msg string) {
	if s.log != nil {
		s.log.Info("ollama: " + msg)
	}
}

func requireModel(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", apperrors.Validation("model is required")
	}
	return model, nil
}

// chatRequest validates args and maps them onto chat messages and options.
func chatRequest(args models.GenerateArgs) ([]*schema.Message, []model.Option, error) {
	name, err := requireModel(args.Model)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return nil, nil, apperrors.Validation("prompt is required")
	}
	var input []*schema.Message
	if args.System != nil {
		input = append(input, schema.SystemMessage(*args.System))
	}
	input = append(input, schema.UserMessage(args.Prompt))
	opts := []model.Option{
		model.WithModel(name),
		ollama.WithOptions(ollama.Options{Temperature: args.Temperature, NumCtx: args.NumCtx}),
	}
	return input, opts, nil
}

// remoteOllamaError classifies client failures into transport codes.
func remoteOllamaError(err error) error {
	code := transport.CodeInternal
	switch {
	case errors.Is(err, ollama.ErrNotRunning), errors.Is(err, ollama.ErrSpawnFailed):
		code = transport.CodeUnavailable
	case errors.Is(err, ollama.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		code = transport.CodeTimeout
	case errors.Is(err, ollama.ErrModelNotFound):
		code = transport.CodeNotFound
	}
	return &transport.RemoteError{Code: code, Message: err.Error()}
}
