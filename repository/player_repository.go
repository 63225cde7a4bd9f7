package repository

import (
	"context"
	"fmt"

	"hashguess/database"
	"hashguess/models"

	"github.com/jackc/pgx/v5"
)

// PlayerRepository implements the service.PlayerRepository interface
type PlayerRepository struct {
	q queryable
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{q: db.Pool}
}

// newPlayerRepositoryWithTx creates a new player repository with a transaction
func newPlayerRepositoryWithTx(tx queryable) *PlayerRepository {
	return &PlayerRepository{q: tx}
}

const playerColumns = `id, username, email, balance, created_at, updated_at`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.Balance, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a player by id. Returns nil if the player does not exist.
func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	return player, nil
}

// GetByUsername retrieves a player by username. Returns nil if absent.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE username = $1`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get player %q: %w", username, err)
	}
	return player, nil
}

// Upsert creates a player with zero balance, or returns the existing player
// when the username is already taken. The unique constraint on username makes
// this safe under concurrent calls.
func (r *PlayerRepository) Upsert(ctx context.Context, username, email string) (*models.Player, error) {
	insert := `
		INSERT INTO players (username, email)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, username, email); err != nil {
		return nil, fmt.Errorf("failed to upsert player %q: %w", username, database.MapError(err))
	}

	player, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %q missing after upsert", username)
	}
	return player, nil
}

// GetForUpdate retrieves a player by id under an exclusive row lock held for
// the rest of the transaction. Returns nil if the player does not exist.
func (r *PlayerRepository) GetForUpdate(ctx context.Context, playerID int64) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %d: %w", playerID, database.MapError(err))
	}
	return player, nil
}

// Credit atomically adds amount to the player's balance and returns the new
// balance. The increment happens in the database, never as a read-modify-write
// in application code.
func (r *PlayerRepository) Credit(ctx context.Context, playerID int64, amount int64) (int64, error) {
	query := `
		UPDATE players
		SET balance = balance + $1
		WHERE id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, playerID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit player %d: %w", playerID, database.MapError(err))
	}
	return newBalance, nil
}

// Debit atomically subtracts amount from the player's balance. The caller is
// expected to hold the player's row lock and to have verified the balance;
// the guard here plus the non-negative check constraint are the backstop.
func (r *PlayerRepository) Debit(ctx context.Context, playerID int64, amount int64) error {
	query := `
		UPDATE players
		SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
	`

	tag, err := r.q.Exec(ctx, query, amount, playerID)
	if err != nil {
		return fmt.Errorf("failed to debit player %d: %w", playerID, database.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientFunds
	}
	return nil
}
