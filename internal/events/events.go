// Package events is the fire-and-forget GUI event bus: handlers and the AI
// orchestrator publish named events, the HTTP surface relays them to
// connected clients over SSE. Publishing never blocks the caller and never
// fails — a slow or absent subscriber simply misses events.
package events

import "sync"

// Event is one message pushed to subscribers.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// Emitter is a simple multi-subscriber pub/sub bus. The zero value is not
// usable; construct with New.
type Emitter struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func New() *Emitter {
	return &Emitter{subs: make(map[chan Event]struct{})}
}

// Emit publishes an event to every current subscriber without blocking the
// caller. A subscriber whose channel is full drops the event rather than
// stalling the publisher.
func (e *Emitter) Emit(name string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- Event{Name: name, Payload: payload}:
		default:
		}
	}
}

// Subscribe registers a new listener and returns its channel along with an
// unsubscribe function the caller must invoke when done.
func (e *Emitter) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}
