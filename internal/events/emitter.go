package events

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// Emitter — decouples the engine from whatever UI consumes it
// ─────────────────────────────────────────────────────────────

// Emitter publishes engine notifications to external observers.
// The registry, command stack and controllers receive this interface
// instead of a concrete UI binding, which keeps them testable with
// MockEmitter.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, any) {}

// Handler receives one emitted event.
type Handler func(ctx context.Context, event string, data any)

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers the event to every subscriber. Handlers run outside the lock
// so they may subscribe or unsubscribe.
func (b *Bus) Emit(ctx context.Context, event string, data any) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, event, data)
	}
}

// MockEmitter is a test-friendly Emitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
	m.mu.Unlock()
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent emission of event.
func (m *MockEmitter) Last(event string) (EmittedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Events) - 1; i >= 0; i-- {
		if m.Events[i].Event == event {
			return m.Events[i], true
		}
	}
	return EmittedEvent{}, false
}

// Reset forgets every recorded event.
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	m.Events = nil
	m.mu.Unlock()
}
