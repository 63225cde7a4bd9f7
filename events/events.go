package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated EventType = "account_created"
	EventTypeBalanceCredit  EventType = "balance_credit"
	EventTypeBetPlaced      EventType = "bet_placed"
	EventTypeBlockOpened    EventType = "block_opened"
	EventTypeBlockRevealed  EventType = "block_revealed"
	EventTypeBetsResolved   EventType = "bets_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent represents a newly created player account
type AccountCreatedEvent struct {
	PlayerID int64
	Username string
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// BalanceCreditEvent represents a credit applied to a player's balance
type BalanceCreditEvent struct {
	PlayerID   int64
	Amount     int64
	NewBalance int64
}

func (e BalanceCreditEvent) Type() EventType {
	return EventTypeBalanceCredit
}

// BetPlacedEvent represents a bet accepted against an open block
type BetPlacedEvent struct {
	BetID      int64
	PlayerID   int64
	BlockID    int64
	Prediction string
	Stake      int64
	NewBalance int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BlockOpenedEvent represents a new open block
type BlockOpenedEvent struct {
	BlockID int64
}

func (e BlockOpenedEvent) Type() EventType {
	return EventTypeBlockOpened
}

// BlockRevealedEvent represents a block whose outcome was just revealed
type BlockRevealedEvent struct {
	BlockID int64
	Hash    string
	Outcome string
}

func (e BlockRevealedEvent) Type() EventType {
	return EventTypeBlockRevealed
}

// BetsResolvedEvent represents a resolution pass over closed blocks
type BetsResolvedEvent struct {
	Count int64
}

func (e BetsResolvedEvent) Type() EventType {
	return EventTypeBetsResolved
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

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction that produced them; emit with a
	// background context so a cancelled request context cannot drop them.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
