package event_bus

import (
	"context"
	"errors"
	"sync"
)

// Handler receives the arguments an event was emitted with.
type Handler func(ctx context.Context, args ...any) error

// Bus is a named-channel event emitter. Handlers run synchronously, in the
// order they subscribed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// On subscribes h to event. There is no way to unsubscribe.
func (b *Bus) On(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit calls every handler subscribed to event. A failing handler does not
// stop the ones after it; all errors are joined.
func (b *Bus) Emit(ctx context.Context, event string, args ...any) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event]))
	copy(handlers, b.handlers[event])
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, args...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Listeners returns the number of handlers subscribed to event.
func (b *Bus) Listeners(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[event])
}
