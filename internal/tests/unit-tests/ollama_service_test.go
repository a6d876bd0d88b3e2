package unit_tests

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof/internal/apperrors"
	"proof/internal/events"
	"proof/internal/logging"
	"proof/internal/models"
	"proof/internal/ollama"
	"proof/internal/services"
	"proof/internal/tests/mocks"
	"proof/internal/transport"
)

// recordEvents captures every token and done event published on bus, in order.
func recordEvents(t *testing.T, bus *transport.Bus) *[]string {
	t.Helper()
	var got []string
	_, err := bus.Listen(events.LLMToken, func(p json.RawMessage) {
		var tok events.Token
		require.NoError(t, json.Unmarshal(p, &tok))
		got = append(got, tok.Token)
	})
	require.NoError(t, err)
	_, err = bus.Listen(events.LLMDone, func(json.RawMessage) { got = append(got, "<done>") })
	require.NoError(t, err)
	return &got
}

func TestOllamaService_GenerateStream_EmitsTokensThenDone(t *testing.T) {
	var sent ollama.GenerateRequest
	client := &mocks.OllamaClientMock{
		GenerateStreamFunc: func(ctx context.Context, req ollama.GenerateRequest, onToken ollama.TokenFunc) error {
			sent = req
			for _, tok := range []string{"Hel", "lo"} {
				if err := onToken(tok); err != nil {
					return err
				}
			}
			return nil
		},
	}
	bus := transport.NewBus()
	got := recordEvents(t, bus)
	service := services.NewOllamaService(client, bus, logging.Nop())

	args := models.GenerateArgsFrom(models.DefaultSettings(), "", "hi")
	require.NoError(t, service.GenerateStream(context.Background(), args))
	assert.Equal(t, []string{"Hel", "lo", "<done>"}, *got)

	assert.Equal(t, "llama3.2:1b", sent.Model)
	require.NotNil(t, sent.Options)
	assert.Equal(t, 0.7, *sent.Options.Temperature)
	assert.Equal(t, 4096, *sent.Options.NumCtx)
	assert.Empty(t, sent.System)
}

func TestOllamaService_GenerateStream_FailureSkipsDone(t *testing.T) {
	client := &mocks.OllamaClientMock{
		GenerateStreamFunc: func(ctx context.Context, req ollama.GenerateRequest, onToken ollama.TokenFunc) error {
			_ = onToken("par")
			return ollama.ErrStreamAborted
		},
	}
	bus := transport.NewBus()
	got := recordEvents(t, bus)
	service := services.NewOllamaService(client, bus, logging.Nop())

	err := service.GenerateStream(context.Background(), models.GenerateArgs{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, transport.CodeInternal, transport.CodeOf(err))
	assert.Equal(t, []string{"par"}, *got)
}

func TestOllamaService_ValidatesBeforeCallingOllama(t *testing.T) {
	client := &mocks.OllamaClientMock{
		GenerateFunc: func(ctx context.Context, req ollama.GenerateRequest) (string, error) {
			t.Fatal("ollama must not be called")
			return "", nil
		},
	}
	service := services.NewOllamaService(client, transport.NewBus(), logging.Nop())

	_, err := service.GenerateText(context.Background(), models.GenerateArgs{Model: "m", Prompt: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorIs(t, service.Pull(context.Background(), ""), apperrors.ErrValidation)
}

func TestOllamaService_ErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{&ollama.ClientError{Type: ollama.ErrTypeNotRunning, Message: "ollama is not reachable"}, transport.CodeUnavailable},
		{ollama.ErrTimeout, transport.CodeTimeout},
		{&ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "delete x failed: 404"}, transport.CodeNotFound},
		{errors.New("weird"), transport.CodeInternal},
	}
	for _, tc := range cases {
		client := &mocks.OllamaClientMock{
			DeleteFunc: func(ctx context.Context, model string) error { return tc.err },
		}
		service := services.NewOllamaService(client, transport.NewBus(), logging.Nop())
		err := service.Delete(context.Background(), "x")
		assert.Equal(t, tc.code, transport.CodeOf(err), tc.err.Error())
	}
}

func TestOllamaService_ListEnsuresFirst(t *testing.T) {
	client := &mocks.OllamaClientMock{
		ListModelsFunc: func(ctx context.Context) ([]ollama.Tag, error) {
			return []ollama.Tag{{Name: "b:latest", Size: 42}, {Name: "a:latest"}}, nil
		},
	}
	service := services.NewOllamaService(client, transport.NewBus(), logging.Nop())

	tags, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.EnsureCalls)
	require.Len(t, tags, 2)
	assert.Equal(t, "b:latest", tags[0].Model)
	require.NotNil(t, tags[0].Size)
	assert.Equal(t, int64(42), *tags[0].Size)
	assert.Nil(t, tags[1].Size)
}

func TestOllamaService_GenerationEnsuresFirst(t *testing.T) {
	var sent ollama.GenerateRequest
	client := &mocks.OllamaClientMock{
		GenerateFunc: func(ctx context.Context, req ollama.GenerateRequest) (string, error) {
			sent = req
			return "a poem", nil
		},
	}
	service := services.NewOllamaService(client, transport.NewBus(), logging.Nop())

	system := "rhyme"
	args := models.GenerateArgsFrom(models.DefaultSettings(), "", "write")
	args.System = &system
	text, err := service.GenerateText(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "a poem", text)
	assert.Equal(t, 1, client.EnsureCalls)
	assert.Equal(t, "rhyme", sent.System)
	assert.Equal(t, "write", sent.Prompt)
	require.NotNil(t, sent.Options)
	assert.Equal(t, 4096, *sent.Options.NumCtx)

	require.NoError(t, service.GenerateStream(context.Background(), args))
	assert.Equal(t, 2, client.EnsureCalls)
}

func TestOllamaService_GenerationFailsWhenServerStaysDown(t *testing.T) {
	client := &mocks.OllamaClientMock{
		EnsureRunningFunc: func(ctx context.Context) error { return ollama.ErrSpawnFailed },
		GenerateFunc: func(ctx context.Context, req ollama.GenerateRequest) (string, error) {
			return "", &ollama.ClientError{Type: ollama.ErrTypeNotRunning, Message: "ollama is not reachable"}
		},
	}
	service := services.NewOllamaService(client, transport.NewBus(), logging.Nop())

	_, err := service.GenerateText(context.Background(), models.GenerateArgs{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 1, client.EnsureCalls)
	assert.Equal(t, transport.CodeUnavailable, transport.CodeOf(err))
}
