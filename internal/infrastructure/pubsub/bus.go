package pubsub

import (
	"context"
	"sync"
)

// Bus is the fire-and-forget broadcast fabric. Publish never waits for
// subscribers; Subscribe returns an unsubscribe function.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(topic string, handler Handler) (unsubscribe func(), err error)
}

// InMemoryBus is a single-node Bus used in tests and single-process
// deployments. Delivery is synchronous and in subscription order.
type InMemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewInMemoryBus creates an empty in-memory bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		subs: make(map[string]map[int]Handler),
	}
}

// Publish delivers the message to every current subscriber of the topic.
func (b *InMemoryBus) Publish(_ context.Context, topic string, msg Message) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic, msg)
	}
	return nil
}

// Subscribe registers a handler for a topic.
func (b *InMemoryBus) Subscribe(topic string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	}, nil
}
