// Package events provides the in-process publish/subscribe surface the sync
// engine exposes to the UI layer: identity-change confirmation requests and
// outbox status updates are both delivered through an [Emitter].
package events

import "sync"

// Topic names published by the sync engine.
const (
	// TopicIdentityConflict carries a models.IdentityConflict payload.
	TopicIdentityConflict = "identity.conflict"
	// TopicOutboxChanged carries a models.OutboxStatus payload.
	TopicOutboxChanged = "outbox.changed"
)

// Handler receives the payload published under a topic.
type Handler func(payload any)

type subscription struct {
	id      int
	handler Handler
}

// Emitter is a minimal synchronous event bus. Handlers run on the caller's
// goroutine in subscription order. Safe for concurrent use.
type Emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string][]subscription
}

// NewEmitter returns an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[string][]subscription)}
}

// On subscribes handler to topic and returns an unsubscribe function.
// The unsubscribe function may be called multiple times.
func (e *Emitter) On(topic string, handler Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers[topic] = append(e.handlers[topic], subscription{id: id, handler: handler})

	return func() { e.off(topic, id) }
}

// Emit delivers payload to every handler subscribed to topic.
// Handlers subscribed during delivery do not receive the current event.
func (e *Emitter) Emit(topic string, payload any) {
	e.mu.Lock()
	registered := e.handlers[topic]
	snapshot := make([]Handler, 0, len(registered))
	for _, sub := range registered {
		snapshot = append(snapshot, sub.handler)
	}
	e.mu.Unlock()

	for _, h := range snapshot {
		h(payload)
	}
}

// Off drops every handler subscribed to topic. Subscriptions on other
// topics are untouched.
func (e *Emitter) Off(topic string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, topic)
}

// RemoveAll drops every subscription; used on shutdown.
func (e *Emitter) RemoveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[string][]subscription)
}

func (e *Emitter) off(topic string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.handlers[topic]
	for i, sub := range subs {
		if sub.id == id {
			e.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
