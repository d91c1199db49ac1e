package events

import (
	"context"
	"sync"

	"plateraffle/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeObservationRecorded   EventType = "observation_recorded"
	EventTypeDrawStarted           EventType = "draw_started"
	EventTypeDrawFinalized         EventType = "draw_finalized"
	EventTypeDrawReset             EventType = "draw_reset"
	EventTypeSessionDiscardToggled EventType = "session_discard_toggled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ObservationRecordedEvent represents a plate record appended to a session
type ObservationRecordedEvent struct {
	SessionID   int64
	IdentityKey models.IdentityKey
	Category    models.Category
}

func (e ObservationRecordedEvent) Type() EventType {
	return EventTypeObservationRecorded
}

// DrawStartedEvent represents a winner being selected for a session
type DrawStartedEvent struct {
	SessionID   int64
	WinnerKey   models.IdentityKey
	Tickets     float64
	Probability float64
	PoolSize    int
	Method      models.DrawMethod
	Actor       string
}

func (e DrawStartedEvent) Type() EventType {
	return EventTypeDrawStarted
}

// DrawFinalizedEvent represents a draw being finalized
type DrawFinalizedEvent struct {
	SessionID int64
	WinnerKey models.IdentityKey
	Override  bool
	Actor     string
}

func (e DrawFinalizedEvent) Type() EventType {
	return EventTypeDrawFinalized
}

// DrawResetEvent represents a draw being cleared back to no-winner
type DrawResetEvent struct {
	SessionID     int64
	PreviousKey   models.IdentityKey
	WasFinalized  bool
	Actor         string
}

func (e DrawResetEvent) Type() EventType {
	return EventTypeDrawReset
}

// SessionDiscardToggledEvent represents a session's discard flag changing
type SessionDiscardToggledEvent struct {
	SessionID int64
	Discarded bool
	Actor     string
}

func (e SessionDiscardToggledEvent) Type() EventType {
	return EventTypeSessionDiscardToggled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after a successful commit. Uses a
// background context so event handling outlives the transaction context.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
