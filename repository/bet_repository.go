package repository

import (
	"context"
	"fmt"

	"hashguess/database"
	"hashguess/models"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the service.BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a new unresolved bet. The active-bet-cap trigger fires as
// part of this insert, inside the caller's transaction.
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (player_id, block_id, prediction, stake)
		VALUES ($1, $2, $3, $4)
		RETURNING id, placed_at, resolved, is_win
	`

	err := r.q.QueryRow(ctx, query,
		bet.PlayerID,
		bet.BlockID,
		bet.Prediction,
		bet.Stake,
	).Scan(&bet.ID, &bet.PlacedAt, &bet.Resolved, &bet.IsWin)

	if err != nil {
		return fmt.Errorf("failed to create bet for player %d: %w", bet.PlayerID, database.MapError(err))
	}
	return nil
}

// GetByID retrieves a bet by id. Returns nil if the bet does not exist.
func (r *BetRepository) GetByID(ctx context.Context, betID int64) (*models.Bet, error) {
	query := `
		SELECT id, player_id, block_id, prediction, stake, placed_at, resolved, is_win
		FROM bets
		WHERE id = $1
	`

	var b models.Bet
	err := r.q.QueryRow(ctx, query, betID).Scan(
		&b.ID, &b.PlayerID, &b.BlockID, &b.Prediction, &b.Stake, &b.PlacedAt, &b.Resolved, &b.IsWin,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", betID, err)
	}
	return &b, nil
}

// CountUnresolvedByPlayer returns the player's number of active bets.
func (r *BetRepository) CountUnresolvedByPlayer(ctx context.Context, playerID int64) (int, error) {
	query := `SELECT count(*) FROM bets WHERE player_id = $1 AND resolved = false`

	var count int
	if err := r.q.QueryRow(ctx, query, playerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active bets for player %d: %w", playerID, err)
	}
	return count, nil
}

// GetByPlayer returns the player's bets, most recent first.
func (r *BetRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.Bet, error) {
	query := `
		SELECT id, player_id, block_id, prediction, stake, placed_at, resolved, is_win
		FROM bets
		WHERE player_id = $1
		ORDER BY placed_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var b models.Bet
		if err := rows.Scan(&b.ID, &b.PlayerID, &b.BlockID, &b.Prediction, &b.Stake, &b.PlacedAt, &b.Resolved, &b.IsWin); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// ResolveForClosedBlocks settles, in one statement, every unresolved bet whose
// block has a revealed outcome: resolved becomes true and is_win is the
// prediction compared against the block's actual outcome. Returns the number
// of bets settled; zero when nothing is eligible, which makes the operation
// idempotent.
func (r *BetRepository) ResolveForClosedBlocks(ctx context.Context) (int64, error) {
	query := `
		UPDATE bets
		SET resolved = true,
		    is_win = (bets.prediction = blocks.actual_outcome)
		FROM blocks
		WHERE bets.block_id = blocks.id
		  AND blocks.actual_outcome IS NOT NULL
		  AND bets.resolved = false
	`

	tag, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve bets for closed blocks: %w", database.MapError(err))
	}
	return tag.RowsAffected(), nil
}
