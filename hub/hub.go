// Package hub is the in-process publish/subscribe bus for domain
// events. It is best effort: no buffering, no replay, no persistence.
// A subscriber only observes events published between its Subscribe
// and its unsubscribe. It is not a message broker.
package hub

import (
	"log/slog"
	"sync"

	"relaychat/domain/event"
)

type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(event.DomainEvent)
	log    *slog.Logger
}

func New(log *slog.Logger) *Hub {
	return &Hub{subs: make(map[int]func(event.DomainEvent)), log: log}
}

// Subscribe registers a callback for every subsequent event and
// returns its unsubscribe function. Unsubscribing twice is harmless.
func (h *Hub) Subscribe(fn func(event.DomainEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers an event to every current subscriber. Delivery
// iterates a snapshot, so subscribing or unsubscribing mid-publish
// never corrupts it, and a panicking subscriber never reaches the
// publisher or the remaining subscribers.
func (h *Hub) Publish(e event.DomainEvent) {
	h.mu.RLock()
	snapshot := make([]func(event.DomainEvent), 0, len(h.subs))
	for _, fn := range h.subs {
		snapshot = append(snapshot, fn)
	}
	h.mu.RUnlock()

	for _, fn := range snapshot {
		h.deliver(fn, e)
	}
}

func (h *Hub) deliver(fn func(event.DomainEvent), e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("event subscriber panicked", "kind", e.Kind(), "panic", r)
		}
	}()
	fn(e)
}
