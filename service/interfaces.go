package service

import (
	"context"

	"hashguess/events"
	"hashguess/models"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	// GetByID retrieves a player by id; nil when absent
	GetByID(ctx context.Context, playerID int64) (*models.Player, error)

	// GetByUsername retrieves a player by username; nil when absent
	GetByUsername(ctx context.Context, username string) (*models.Player, error)

	// Upsert creates a player with zero balance or returns the existing one
	Upsert(ctx context.Context, username, email string) (*models.Player, error)

	// GetForUpdate retrieves a player under an exclusive row lock; nil when absent
	GetForUpdate(ctx context.Context, playerID int64) (*models.Player, error)

	// Credit atomically adds amount to the balance and returns the new balance
	Credit(ctx context.Context, playerID int64, amount int64) (int64, error)

	// Debit atomically subtracts amount, failing on insufficient funds
	Debit(ctx context.Context, playerID int64, amount int64) error
}

// BlockRepository defines the interface for block data access
type BlockRepository interface {
	// Create inserts a new open block
	Create(ctx context.Context) (*models.Block, error)

	// GetByID retrieves a block by id; nil when absent
	GetByID(ctx context.Context, blockID int64) (*models.Block, error)

	// GetByIDForUpdate retrieves a block under an exclusive row lock; nil when absent
	GetByIDForUpdate(ctx context.Context, blockID int64) (*models.Block, error)

	// GetLatest retrieves the most recently created block; nil when none exist
	GetLatest(ctx context.Context) (*models.Block, error)

	// Reveal writes hash and outcome together, exactly once
	Reveal(ctx context.Context, blockID int64, hash, outcome string) error

	// CountOpen returns the number of blocks with an unknown outcome
	CountOpen(ctx context.Context) (int, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a new unresolved bet
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by id; nil when absent
	GetByID(ctx context.Context, betID int64) (*models.Bet, error)

	// CountUnresolvedByPlayer returns the player's number of active bets
	CountUnresolvedByPlayer(ctx context.Context, playerID int64) (int, error)

	// GetByPlayer returns the player's bets, most recent first
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.Bet, error)

	// ResolveForClosedBlocks settles all bets on closed blocks in one statement
	ResolveForClosedBlocks(ctx context.Context) (int64, error)
}

// PaymentRepository defines the interface for payment audit records
type PaymentRepository interface {
	// Record creates a new payment entry
	Record(ctx context.Context, payment *models.Payment) error

	// GetByPlayer returns payments for a player, most recent first
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.Payment, error)
}

// AccountService defines the interface for account and balance operations
type AccountService interface {
	// CreateAccount creates a player or returns the existing one for the username
	CreateAccount(ctx context.Context, username, email string) (*models.Player, error)

	// Credit adds amount (cents, > 0) to the player's balance
	Credit(ctx context.Context, playerID int64, amount int64) (int64, error)

	// GetPlayer retrieves a player by id
	GetPlayer(ctx context.Context, playerID int64) (*models.Player, error)
}

// BlockService defines the interface for block lifecycle operations
type BlockService interface {
	// OpenBlock creates a new open block; fails while the prior block is unresolved
	OpenBlock(ctx context.Context) (*models.Block, error)

	// RevealOutcome generates the block's hash and derives its outcome
	RevealOutcome(ctx context.Context, blockID int64) (string, error)
}

// BetService defines the interface for bet placement
type BetService interface {
	// PlaceBet stakes amount (cents, > 0) on the given open block
	PlaceBet(ctx context.Context, playerID, blockID int64, prediction string, stake int64) (*models.Bet, error)
}

// ResolutionService defines the interface for settling bets
type ResolutionService interface {
	// ResolveClosedBlocks settles every unresolved bet on a closed block
	ResolveClosedBlocks(ctx context.Context) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new serializable transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	PlayerRepository() PlayerRepository
	BlockRepository() BlockRepository
	BetRepository() BetRepository
	PaymentRepository() PaymentRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
