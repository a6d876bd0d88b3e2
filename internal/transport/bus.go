package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Bus is an in-process event bus. Emit calls handlers synchronously on the
// emitting goroutine, so events from one publisher arrive in order.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]*listener
}

type listener struct {
	id      uint64
	event   string
	handler EventHandler
	closed  atomic.Bool
	bus     *Bus
	once    sync.Once
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]*listener)}
}

func (b *Bus) Listen(event string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("listen %s: nil handler", event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	l := &listener{id: b.nextID, event: event, handler: handler, bus: b}
	b.listeners[event] = append(b.listeners[event], l)
	return l, nil
}

func (b *Bus) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	b.mu.RLock()
	snapshot := append([]*listener(nil), b.listeners[event]...)
	b.mu.RUnlock()

	for _, l := range snapshot {
		// A handler may close another subscription of the same event.
		if l.closed.Load() {
			continue
		}
		l.handler(json.RawMessage(data))
	}
	return nil
}

// ListenerCount reports the live subscriptions for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}

func (l *listener) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		b := l.bus
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.listeners[l.event]
		for i, other := range list {
			if other.id == l.id {
				b.listeners[l.event] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.listeners[l.event]) == 0 {
			delete(b.listeners, l.event)
		}
	})
}
