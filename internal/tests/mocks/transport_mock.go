package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"proof/internal/transport"
)

// TransportMock is an in-process transport whose commands are plain funcs.
// Every Invoke is recorded, including calls to unregistered commands.
type TransportMock struct {
	Router *transport.Router
	Bus    *transport.Bus
	local  *transport.Local

	mu    sync.Mutex
	calls []string
}

func NewTransportMock() *TransportMock {
	router := transport.NewRouter()
	bus := transport.NewBus()
	return &TransportMock{
		Router: router,
		Bus:    bus,
		local: transport.NewLocal(router, bus, transport.LocalConfig{
			CallTimeout: 5 * time.Second,
			RetryDelay:  time.Millisecond,
		}),
	}
}

// Handle registers fn for command.
func (m *TransportMock) Handle(command string, fn func(ctx context.Context, args json.RawMessage) (any, error)) {
	m.Router.Handle(command, fn, transport.Unbounded())
}

// Returns registers a command that always answers with result.
func (m *TransportMock) Returns(command string, result any) {
	m.Handle(command, func(context.Context, json.RawMessage) (any, error) { return result, nil })
}

// Fails registers a command that always fails with err.
func (m *TransportMock) Fails(command string, err error) {
	m.Handle(command, func(context.Context, json.RawMessage) (any, error) { return nil, err })
}

func (m *TransportMock) Invoke(ctx context.Context, command string, args any, out any) error {
	m.mu.Lock()
	m.calls = append(m.calls, command)
	m.mu.Unlock()
	return m.local.Invoke(ctx, command, args, out)
}

func (m *TransportMock) Listen(event string, handler transport.EventHandler) (transport.Subscription, error) {
	return m.Bus.Listen(event, handler)
}

func (m *TransportMock) Emit(event string, payload any) error {
	return m.Bus.Emit(event, payload)
}

func (m *TransportMock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *TransportMock) CallCount(command string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == command {
			n++
		}
	}
	return n
}
