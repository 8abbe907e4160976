package events

import (
	"context"
	"log"
	"sync"
)

// Event is a quest change broadcast to every interested observer.
type Event struct {
	// Type is one of the Quest* event types.
	Type string

	// Origin names the component that dispatched the event so it can skip its own echoes.
	Origin string

	// Payload is optional typed data, see GetPayload.
	Payload any

	Context context.Context
}

// Observer is notified of dispatched events.
type Observer interface {
	// OnEvent handles the event. Errors are logged by the dispatcher, never retried.
	OnEvent(event Event) error

	// GetName returns a human-readable name for logging.
	GetName() string

	// ShouldHandle returns true if this observer cares about eventType.
	ShouldHandle(eventType string) bool
}

// EventDispatcher fans events out to registered observers. Safe for concurrent use.
type EventDispatcher struct {
	observers []Observer
	mu        sync.RWMutex
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		observers: make([]Observer, 0),
	}
}

// Register adds an observer; it sees every event dispatched from now on.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[EventDispatcher] Registered observer: %s", observer.GetName())
}

func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			log.Printf("[EventDispatcher] Unregistered observer: %s", observer.GetName())
			return
		}
	}
}

// Dispatch notifies observers synchronously in registration order. A failing
// observer is logged and does not stop the others.
func (d *EventDispatcher) Dispatch(event Event) {
	if event.Context == nil {
		event.Context = context.Background()
	}
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[EventDispatcher] Observer %s failed to handle event %s: %v",
				observer.GetName(), event.Type, err)
		}
	}
}

func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all registered observers.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = make([]Observer, 0)
	log.Printf("[EventDispatcher] Cleared all observers")
}

// NewTypedEvent builds an event carrying a typed payload.
func NewTypedEvent[T any](ctx context.Context, eventType, origin string, payload T) Event {
	return Event{
		Type:    eventType,
		Origin:  origin,
		Payload: payload,
		Context: ctx,
	}
}

// GetPayload extracts the typed payload. Returns false if it is missing or of another type.
func GetPayload[T any](event Event) (T, bool) {
	var zero T
	if event.Payload == nil {
		return zero, false
	}
	typed, ok := event.Payload.(T)
	return typed, ok
}
