package ollama

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the completion surface of *Client.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	GenerateStream(ctx context.Context, req GenerateRequest, onToken TokenFunc) error
}

// ChatModel exposes a Generator as an eino chat model. System messages
// become the request's system prompt and user messages are joined into the
// prompt; the model name comes from model.WithModel.
type ChatModel struct {
	gen Generator
}

var _ model.BaseChatModel = (*ChatModel)(nil)

var errReaderClosed = errors.New("ollama: stream reader closed")

type chatOptions struct {
	Options *Options
}

// WithOptions sets the Ollama runtime options for one call. A temperature
// given through model.WithTemperature is used only when opts has none.
func WithOptions(opts Options) model.Option {
	return model.WrapImplSpecificOptFn(func(o *chatOptions) {
		o.Options = &opts
	})
}

func NewChatModel(gen Generator) *ChatModel {
	return &ChatModel{gen: gen}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req, err := buildRequest(input, opts)
	if err != nil {
		return nil, err
	}
	text, err := m.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream starts the completion in the background. Closing the returned
// reader stops it; a failure is delivered as the reader's last error.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req, err := buildRequest(input, opts)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](16)
	go func() {
		defer sw.Close()
		err := m.gen.GenerateStream(ctx, req, func(token string) error {
			if closed := sw.Send(schema.AssistantMessage(token, nil), nil); closed {
				return errReaderClosed
			}
			return nil
		})
		if err != nil && !errors.Is(err, errReaderClosed) {
			sw.Send(nil, err)
		}
	}()
	return sr, nil
}

func buildRequest(input []*schema.Message, opts []model.Option) (GenerateRequest, error) {
	common := model.GetCommonOptions(&model.Options{}, opts...)
	specific := model.GetImplSpecificOptions(&chatOptions{}, opts...)
	if common.Model == nil || strings.TrimSpace(*common.Model) == "" {
		return GenerateRequest{}, errors.New("ollama: model is required")
	}

	var system, prompt []string
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.User:
			prompt = append(prompt, msg.Content)
		}
	}

	req := GenerateRequest{
		Model:  *common.Model,
		Prompt: strings.Join(prompt, "\n\n"),
		System: strings.Join(system, "\n\n"),
	}
	options := Options{}
	if specific.Options != nil {
		options = *specific.Options
	}
	if options.Temperature == nil && common.Temperature != nil {
		t := float64(*common.Temperature)
		options.Temperature = &t
	}
	if !options.empty() {
		req.Options = &options
	}
	return req, nil
}
