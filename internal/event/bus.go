package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscriber struct {
	id      string
	handler Handler
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID    string
	Topic Type

	bus  *InMemoryBus
	once sync.Once
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.Unsubscribe(s.Topic, s.ID)
	})
}

// InMemoryBus delivers events synchronously to handlers registered per topic,
// in registration order. It is created once by the application and injected;
// there is no package-level instance.
type InMemoryBus struct {
	mu     sync.RWMutex
	topics map[Type][]subscriber
	logger *slog.Logger
}

func NewBus() *InMemoryBus {
	return NewBusWithLogger(slog.Default())
}

func NewBusWithLogger(logger *slog.Logger) *InMemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryBus{
		topics: make(map[Type][]subscriber),
		logger: logger.With("component", "event_bus"),
	}
}

func (b *InMemoryBus) Subscribe(topic Type, handler Handler) *Subscription {
	id := uuid.NewString()

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], subscriber{id: id, handler: handler})
	b.mu.Unlock()

	return &Subscription{ID: id, Topic: topic, bus: b}
}

func (b *InMemoryBus) Unsubscribe(topic Type, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		return
	}

	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		// Copy so a Publish iterating the old slice is unaffected.
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, topic)
		} else {
			b.topics[topic] = next
		}
		return
	}
}

func (b *InMemoryBus) Emit(ctx context.Context, topic Type, payload any, actorID string) {
	b.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      topic,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	})
}

func (b *InMemoryBus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := b.topics[e.Type]
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(ctx, sub, e)
	}
}

// Subscribers reports how many handlers are registered for topic.
func (b *InMemoryBus) Subscribers(topic Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Stream adapts the bus to a channel for long-lived consumers. Sends never
// block the publisher: when the buffer is full the event is dropped for this
// stream only.
func (b *InMemoryBus) Stream(buffer int, topics ...Type) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 100
	}

	ch := make(chan Event, buffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	forward := func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- e:
		default:
			b.logger.Warn("stream buffer full, dropping event", "type", e.Type, "event_id", e.ID)
		}
		return nil
	}

	subs := make([]*Subscription, 0, len(topics))
	for _, topic := range topics {
		subs = append(subs, b.Subscribe(topic, forward))
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}

	return ch, cancel
}

func (b *InMemoryBus) deliver(ctx context.Context, sub subscriber, e Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.Error("event handler panicked",
				"type", e.Type,
				"subscription_id", sub.id,
				"error", fmt.Sprintf("%v", recovered),
				"stack", string(debug.Stack()))
		}
	}()

	if err := sub.handler(ctx, e); err != nil {
		b.logger.Error("event handler failed", "type", e.Type, "subscription_id", sub.id, "error", err)
	}
}
