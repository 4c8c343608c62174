package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"crate/internal/logging"
)

// Handler reacts to one published event.
type Handler func(ctx context.Context, event Event) error

// Bus dispatches events synchronously to subscribers in subscription order.
// Publish logs handler errors; Dispatch returns them.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logging.NewComponentLogger(logger, "events"),
	}
}

// Subscribe registers h for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers event to every subscriber of its name. Handler errors are
// logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := b.Dispatch(ctx, event); err != nil {
		logging.WithContext(ctx, b.logger).Warn("event handler failed",
			logging.String("event", event.EventName()),
			logging.Error(err),
		)
	}
}

// Dispatch delivers event to every subscriber of its name and returns the
// joined handler errors. Every handler runs even when an earlier one fails.
func (b *Bus) Dispatch(ctx context.Context, event Event) error {
	if b == nil || event == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// On subscribes a handler typed to one concrete event.
func On[E Event](b *Bus, h func(ctx context.Context, event E) error) {
	var zero E
	b.Subscribe(zero.EventName(), func(ctx context.Context, event Event) error {
		typed, ok := event.(E)
		if !ok {
			return nil
		}
		return h(ctx, typed)
	})
}
