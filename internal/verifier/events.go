package verifier

import (
	"sync"

	"facegate/internal/constants"
)

// EventType names the kinds of session events pushed to subscribers.
type EventType string

// EventType constants cover every notification the orchestrator emits.
const (
	EventState       EventType = "state"       // stage transition, Data is the new State
	EventInstruction EventType = "instruction" // guidance for the subject ("turn left", ...)
	EventProgress    EventType = "progress"    // batch sample count, attempt count
	EventVerdict     EventType = "verdict"     // final outcome, Data is *Result
	EventError       EventType = "error"       // non-terminal per-tick error, logged and surfaced
)

// Event is one session notification.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// Broadcaster provides listener management and event fan-out for a session.
// Embed this in session structs to get AddListener, RemoveListener, and
// SendEvent methods.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *Broadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
