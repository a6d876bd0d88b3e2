package chat_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof/internal/apperrors"
	"proof/internal/chat"
	"proof/internal/commands"
	"proof/internal/events"
	"proof/internal/gate"
	"proof/internal/generation"
	"proof/internal/lifecycle"
	"proof/internal/logging"
	"proof/internal/models"
	"proof/internal/state"
	"proof/internal/stores"
	"proof/internal/tests/mocks"
	"proof/internal/transport"
)

type published struct {
	mu      sync.Mutex
	states  []chat.View
	notices []events.Notice
}

func (p *published) emit(_ context.Context, name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch name {
	case events.UIState:
		p.states = append(p.states, payload.(chat.View))
	case events.UINotice:
		p.notices = append(p.notices, payload.(events.Notice))
	}
}

func (p *published) answers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, v := range p.states {
		if len(out) == 0 || out[len(out)-1] != v.Answer {
			out = append(out, v.Answer)
		}
	}
	return out
}

func (p *published) lastNotice() events.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notices) == 0 {
		return events.Notice{}
	}
	return p.notices[len(p.notices)-1]
}

type fixture struct {
	m   *mocks.TransportMock
	st  *state.Container
	out *published
	c   *chat.Controller
}

// newFixture answers every startup read with defaults. Tests override the
// commands they care about before calling Startup.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := mocks.NewTransportMock()
	m.Returns(commands.OllamaEnsure, nil)
	m.Returns(commands.OllamaHealth, true)
	m.Returns(commands.ModelsList, []models.ModelTag{})
	m.Returns(commands.GetSettings, models.DefaultSettings())
	m.Returns(commands.GetParentLock, models.DefaultParentLock())
	m.Returns(commands.GetKidSafeSettings, models.DefaultKidSafeSettings())
	m.Returns(commands.GetNetworkSettings, models.DefaultNetworkSettings())
	m.Returns(commands.ListSessions, []models.ChatSession{})

	log := logging.Nop()
	st := state.New(m, log)
	g := gate.New(st, m, log)
	out := &published{}
	c := chat.NewController(chat.Deps{
		State:      st,
		Gate:       g,
		Lifecycle:  lifecycle.NewClient(m, g, log),
		Generation: generation.NewClient(m, g, generation.Config{IdleTimeout: 2 * time.Second, Log: log}),
		Sessions:   stores.NewSessionStore(m),
		Emit:       out.emit,
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
		Log:        log,
	})
	return &fixture{m: m, st: st, out: out, c: c}
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
	}
}

func TestStartup_SelectsConfiguredModelWhenInstalled(t *testing.T) {
	f := newFixture(t)
	settings := models.DefaultSettings()
	settings.DefaultModel = "mistral"
	f.m.Returns(commands.GetSettings, settings)
	f.m.Returns(commands.ModelsList, []models.ModelTag{{Model: "llama3.2:1b"}, {Model: "mistral"}})
	f.m.Returns(commands.ListSessions, []models.ChatSession{{ID: "s1", Title: "First"}})

	f.c.Startup(context.Background())

	v := f.c.View()
	assert.True(t, v.Ready)
	assert.Equal(t, []string{"llama3.2:1b", "mistral"}, v.Models)
	assert.Equal(t, "mistral", v.Model)
	require.Len(t, v.Sessions, 1)
	assert.Equal(t, "s1", v.Sessions[0].ID)
	assert.Equal(t, 1, f.m.CallCount(commands.OllamaEnsure))
	assert.Equal(t, commands.OllamaEnsure, f.m.Calls()[0])
}

func TestStartup_FallsBackToFirstInstalledModel(t *testing.T) {
	f := newFixture(t)
	f.m.Returns(commands.ModelsList, []models.ModelTag{{Model: "phi3"}, {Model: "gemma"}})

	f.c.Startup(context.Background())

	assert.Equal(t, "phi3", f.c.View().Model)
}

func TestStartup_NotReadySkipsModelList(t *testing.T) {
	f := newFixture(t)
	f.m.Fails(commands.OllamaHealth, &transport.RemoteError{Code: transport.CodeUnavailable, Message: "refused"})
	f.m.Fails(commands.ListSessions, &transport.RemoteError{Code: transport.CodeInternal, Message: "disk"})

	f.c.Startup(context.Background())

	v := f.c.View()
	assert.False(t, v.Ready)
	assert.NotEmpty(t, v.Status)
	assert.Empty(t, v.Models)
	assert.NotNil(t, v.Sessions)
	assert.Empty(t, v.Sessions)
	assert.Equal(t, 0, f.m.CallCount(commands.ModelsList))
}

func TestSend_BlockingAnswer(t *testing.T) {
	f := newFixture(t)
	var got models.GenerateRequest
	f.m.Handle(commands.GenerateText, func(_ context.Context, raw json.RawMessage) (any, error) {
		require.NoError(t, json.Unmarshal(raw, &got))
		return "Paris.", nil
	})
	f.m.Returns(commands.ModelsList, []models.ModelTag{{Model: "llama3.2:1b"}})
	f.c.Startup(context.Background())

	answer, err := f.c.Send(context.Background(), "Capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris.", answer)
	assert.Equal(t, "llama3.2:1b", got.Args.Model)
	assert.Equal(t, "Capital of France?", got.Args.Prompt)
	v := f.c.View()
	assert.Equal(t, "Paris.", v.Answer)
	assert.Equal(t, "Capital of France?", v.Prompt)
	assert.False(t, v.Busy)
}

func TestSend_FailureReportsNotice(t *testing.T) {
	f := newFixture(t)
	f.m.Fails(commands.GenerateText, &transport.RemoteError{Code: transport.CodeNotFound, Message: "model not found"})
	f.c.Startup(context.Background())

	_, err := f.c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	n := f.out.lastNotice()
	assert.Equal(t, events.EventError, n.Type)
	assert.Contains(t, n.Message, "model not found")
	assert.False(t, f.c.View().Busy)
}

func TestStream_PublishesTokensThenFinalAnswer(t *testing.T) {
	f := newFixture(t)
	f.m.Handle(commands.GenerateStream, func(context.Context, json.RawMessage) (any, error) {
		for _, tok := range []string{"Once", " upon", " a time"} {
			require.NoError(t, f.m.Emit(events.LLMToken, events.Token{Token: tok}))
		}
		return nil, f.m.Emit(events.LLMDone, nil)
	})
	f.c.Startup(context.Background())

	done, err := f.c.Stream(context.Background(), "Tell me a story")
	require.NoError(t, err)
	waitFor(t, done)

	v := f.c.View()
	assert.Equal(t, "Once upon a time", v.Answer)
	assert.False(t, v.Streaming)
	assert.False(t, v.Busy)
	assert.Equal(t, []string{"", "Once", "Once upon", "Once upon a time"}, f.out.answers())
}

func TestStream_FailureKeepsPartialAnswer(t *testing.T) {
	f := newFixture(t)
	f.m.Handle(commands.GenerateStream, func(context.Context, json.RawMessage) (any, error) {
		require.NoError(t, f.m.Emit(events.LLMToken, events.Token{Token: "Half"}))
		return nil, &transport.RemoteError{Code: transport.CodeInternal, Message: "stream reset"}
	})
	f.c.Startup(context.Background())

	done, err := f.c.Stream(context.Background(), "go")
	require.NoError(t, err)
	waitFor(t, done)

	v := f.c.View()
	assert.Equal(t, "Half", v.Answer)
	assert.False(t, v.Streaming)
	assert.Equal(t, events.EventError, f.out.lastNotice().Type)
}

func TestStream_SecondSendIsRejectedWithoutTouchingView(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.m.Handle(commands.GenerateStream, func(context.Context, json.RawMessage) (any, error) {
		require.NoError(t, f.m.Emit(events.LLMToken, events.Token{Token: "first"}))
		<-release
		return nil, f.m.Emit(events.LLMDone, nil)
	})
	f.c.Startup(context.Background())

	done, err := f.c.Stream(context.Background(), "one")
	require.NoError(t, err)

	_, err = f.c.Send(context.Background(), "two")
	assert.ErrorIs(t, err, apperrors.ErrBusy)
	assert.Equal(t, "one", f.c.View().Prompt)
	assert.Equal(t, events.EventWarn, f.out.lastNotice().Type)

	close(release)
	waitFor(t, done)
	assert.Equal(t, "first", f.c.View().Answer)
}

func TestStream_TruncatesForKidSafe(t *testing.T) {
	f := newFixture(t)
	kidSafe := models.DefaultKidSafeSettings()
	kidSafe.Enabled = true
	kidSafe.ContentFilter = false
	kidSafe.MaxResponseLength = 5
	f.m.Returns(commands.GetKidSafeSettings, kidSafe)
	f.m.Handle(commands.GenerateStream, func(context.Context, json.RawMessage) (any, error) {
		require.NoError(t, f.m.Emit(events.LLMToken, events.Token{Token: "abcdefgh"}))
		return nil, f.m.Emit(events.LLMDone, nil)
	})
	f.c.Startup(context.Background())

	done, err := f.c.Stream(context.Background(), "letters")
	require.NoError(t, err)
	waitFor(t, done)

	assert.Equal(t, "abcde", f.c.View().Answer)
}

func TestApproval_HoldsAnswerUntilParentApproves(t *testing.T) {
	f := newFixture(t)
	kidSafe := models.DefaultKidSafeSettings()
	kidSafe.Enabled = true
	kidSafe.ContentFilter = false
	kidSafe.RequireParentalApproval = true
	f.m.Returns(commands.GetKidSafeSettings, kidSafe)
	f.m.Handle(commands.GenerateStream, func(context.Context, json.RawMessage) (any, error) {
		require.NoError(t, f.m.Emit(events.LLMToken, events.Token{Token: "secret answer"}))
		return nil, f.m.Emit(events.LLMDone, nil)
	})
	f.m.Handle(commands.VerifyParentPassword, func(_ context.Context, raw json.RawMessage) (any, error) {
		var args models.PasswordArgs
		require.NoError(t, json.Unmarshal(raw, &args))
		return args.Password == "hunter2", nil
	})
	f.c.Startup(context.Background())

	done, err := f.c.Stream(context.Background(), "question")
	require.NoError(t, err)
	waitFor(t, done)

	v := f.c.View()
	assert.True(t, v.AwaitingApproval)
	assert.Empty(t, v.Answer)
	assert.NotContains(t, f.out.answers(), "secret answer")

	ok, err := f.c.Approve(context.Background(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.c.View().AwaitingApproval)

	ok, err = f.c.Approve(context.Background(), "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	v = f.c.View()
	assert.False(t, v.AwaitingApproval)
	assert.Equal(t, "secret answer", v.Answer)

	_, err = f.c.Approve(context.Background(), "hunter2")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestApproval_RejectDiscardsHeldAnswer(t *testing.T) {
	f := newFixture(t)
	kidSafe := models.DefaultKidSafeSettings()
	kidSafe.Enabled = true
	kidSafe.ContentFilter = false
	kidSafe.RequireParentalApproval = true
	f.m.Returns(commands.GetKidSafeSettings, kidSafe)
	f.m.Returns(commands.GenerateText, "held")
	f.c.Startup(context.Background())

	answer, err := f.c.Send(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, answer)

	f.c.Reject(context.Background())
	v := f.c.View()
	assert.False(t, v.AwaitingApproval)
	assert.Empty(t, v.Answer)
}

func TestPullModel_RefreshesList(t *testing.T) {
	f := newFixture(t)
	installed := []models.ModelTag{}
	f.m.Handle(commands.ModelsList, func(context.Context, json.RawMessage) (any, error) {
		return installed, nil
	})
	f.m.Handle(commands.ModelPull, func(_ context.Context, raw json.RawMessage) (any, error) {
		var req models.ModelRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		installed = append(installed, models.ModelTag{Model: req.Args.Model})
		return nil, nil
	})
	f.c.Startup(context.Background())
	assert.Empty(t, f.c.View().Models)

	require.NoError(t, f.c.PullModel(context.Background(), "qwen2.5:0.5b"))

	v := f.c.View()
	assert.Equal(t, []string{"qwen2.5:0.5b"}, v.Models)
	assert.Equal(t, "qwen2.5:0.5b", v.Model)
	n := f.out.lastNotice()
	assert.Equal(t, events.EventSuccess, n.Type)
	assert.Equal(t, "qwen2.5:0.5b", n.Metadata["model"])
}

func TestSaveAndLoadSession(t *testing.T) {
	f := newFixture(t)
	saved := map[string]models.ChatSession{}
	f.m.Handle(commands.SaveSession, func(_ context.Context, raw json.RawMessage) (any, error) {
		var p models.SessionPayload
		require.NoError(t, json.Unmarshal(raw, &p))
		saved[p.Session.ID] = p.Session
		return nil, nil
	})
	f.m.Handle(commands.ListSessions, func(context.Context, json.RawMessage) (any, error) {
		out := []models.ChatSession{}
		for _, s := range saved {
			out = append(out, s.Summary())
		}
		return out, nil
	})
	f.m.Handle(commands.LoadSession, func(_ context.Context, raw json.RawMessage) (any, error) {
		var args models.SessionIDArgs
		require.NoError(t, json.Unmarshal(raw, &args))
		s, ok := saved[args.ID]
		if !ok {
			return nil, &transport.RemoteError{Code: transport.CodeNotFound, Message: "session not found"}
		}
		return s, nil
	})
	f.m.Returns(commands.GenerateText, "Blue, mostly.")
	f.c.Startup(context.Background())

	_, err := f.c.Send(context.Background(), "What colour is the sky on a clear summer afternoon?")
	require.NoError(t, err)

	session, err := f.c.SaveSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "What colour is the sky on a clea", session.Title)
	assert.Equal(t, int64(1700000000), session.CreatedAt)
	require.Len(t, session.Messages, 2)
	require.Len(t, f.c.View().Sessions, 1)

	f.c.SetPrompt(context.Background(), "something else")
	loaded, err := f.c.LoadSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	v := f.c.View()
	assert.Equal(t, "What colour is the sky on a clear summer afternoon?", v.Prompt)
	assert.Equal(t, "Blue, mostly.", v.Answer)

	_, err = f.c.LoadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSaveSession_NothingToSave(t *testing.T) {
	f := newFixture(t)
	f.c.Startup(context.Background())

	_, err := f.c.SaveSession(context.Background(), "empty")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, f.m.CallCount(commands.SaveSession))
}

func TestLock_BlocksActionsUntilUnlocked(t *testing.T) {
	f := newFixture(t)
	lock := models.DefaultParentLock()
	lock.IsLocked = true
	lock.HasPassword = true
	lock.LockMessage = "Homework first."
	f.m.Handle(commands.GetParentLock, func(context.Context, json.RawMessage) (any, error) {
		return lock, nil
	})
	f.m.Handle(commands.UnlockParentLock, func(_ context.Context, raw json.RawMessage) (any, error) {
		var args models.PasswordArgs
		require.NoError(t, json.Unmarshal(raw, &args))
		if args.Password != "hunter2" {
			return false, nil
		}
		lock.IsLocked = false
		return true, nil
	})
	f.m.Returns(commands.SaveSettings, nil)
	f.c.Startup(context.Background())

	v := f.c.View()
	assert.True(t, v.Locked)
	assert.Equal(t, "Homework first.", v.LockMessage)
	assert.False(t, v.Ready)

	err := f.c.SaveSettings(context.Background(), models.DefaultSettings())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, 0, f.m.CallCount(commands.SaveSettings))

	ok, err := f.c.Unlock(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.c.View().Locked)

	ok, err = f.c.Unlock(context.Background(), "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.c.View().Locked)

	require.NoError(t, f.c.SaveSettings(context.Background(), models.DefaultSettings()))
	assert.Equal(t, 1, f.m.CallCount(commands.SaveSettings))
}

func TestSetParentLock_DeniedWhileLocked(t *testing.T) {
	f := newFixture(t)
	lock := models.DefaultParentLock()
	lock.IsLocked = true
	lock.HasPassword = true
	f.m.Handle(commands.GetParentLock, func(context.Context, json.RawMessage) (any, error) {
		return lock, nil
	})
	f.m.Handle(commands.UnlockParentLock, func(context.Context, json.RawMessage) (any, error) {
		lock.IsLocked = false
		return true, nil
	})
	var sent models.SetParentLockArgs
	f.m.Handle(commands.SetParentLock, func(_ context.Context, raw json.RawMessage) (any, error) {
		require.NoError(t, json.Unmarshal(raw, &sent))
		lock.IsLocked = true
		return nil, nil
	})
	f.c.Startup(context.Background())

	err := f.c.SetParentLock(context.Background(), models.SetParentLockArgs{Password: "kidpass"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, 0, f.m.CallCount(commands.SetParentLock))
	assert.True(t, f.c.View().Locked)

	ok, err := f.c.Unlock(context.Background(), "parent-secret")
	require.NoError(t, err)
	require.True(t, ok)

	args := models.SetParentLockArgs{Password: "newsecret", CurrentPassword: "parent-secret", LockMessage: "Bedtime."}
	require.NoError(t, f.c.SetParentLock(context.Background(), args))
	assert.Equal(t, 1, f.m.CallCount(commands.SetParentLock))
	assert.Equal(t, args, sent)
	assert.True(t, f.c.View().Locked)
}

func TestSaveNetwork_AppliesCascade(t *testing.T) {
	f := newFixture(t)
	f.m.Returns(commands.SaveNetworkSettings, nil)
	f.c.Startup(context.Background())

	raw := models.DefaultNetworkSettings()
	raw.OutboundConnectionsEnabled = false
	require.NoError(t, f.c.SaveNetwork(context.Background(), raw))

	n := f.c.View().Network
	assert.False(t, n.OutboundConnectionsEnabled)
	assert.False(t, n.OllamaConnectionsEnabled)
	assert.False(t, f.c.CheckHealth(context.Background()))
}
