package repository

import (
	"context"
	"fmt"

	"hashguess/database"
	"hashguess/models"

	"github.com/jackc/pgx/v5"
)

// BlockRepository implements the service.BlockRepository interface
type BlockRepository struct {
	q queryable
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *database.DB) *BlockRepository {
	return &BlockRepository{q: db.Pool}
}

// newBlockRepositoryWithTx creates a new block repository with a transaction
func newBlockRepositoryWithTx(tx queryable) *BlockRepository {
	return &BlockRepository{q: tx}
}

func scanBlock(row pgx.Row) (*models.Block, error) {
	var b models.Block
	err := row.Scan(&b.ID, &b.Hash, &b.ActualOutcome, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new open block (no hash, no outcome).
func (r *BlockRepository) Create(ctx context.Context) (*models.Block, error) {
	query := `
		INSERT INTO blocks DEFAULT VALUES
		RETURNING id, hash, actual_outcome, created_at
	`

	block, err := scanBlock(r.q.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to create block: %w", database.MapError(err))
	}
	return block, nil
}

// GetByID retrieves a block by id. Returns nil if the block does not exist.
func (r *BlockRepository) GetByID(ctx context.Context, blockID int64) (*models.Block, error) {
	query := `SELECT id, hash, actual_outcome, created_at FROM blocks WHERE id = $1`

	block, err := scanBlock(r.q.QueryRow(ctx, query, blockID))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", blockID, err)
	}
	return block, nil
}

// GetByIDForUpdate retrieves a block by id under an exclusive row lock.
// Returns nil if the block does not exist.
func (r *BlockRepository) GetByIDForUpdate(ctx context.Context, blockID int64) (*models.Block, error) {
	query := `SELECT id, hash, actual_outcome, created_at FROM blocks WHERE id = $1 FOR UPDATE`

	block, err := scanBlock(r.q.QueryRow(ctx, query, blockID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock block %d: %w", blockID, database.MapError(err))
	}
	return block, nil
}

// GetLatest retrieves the most recently created block, or nil when no block
// exists yet.
func (r *BlockRepository) GetLatest(ctx context.Context) (*models.Block, error) {
	query := `
		SELECT id, hash, actual_outcome, created_at
		FROM blocks
		ORDER BY id DESC
		LIMIT 1
	`

	block, err := scanBlock(r.q.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}
	return block, nil
}

// Reveal writes hash and outcome together, guarded so an already revealed
// block is never overwritten.
func (r *BlockRepository) Reveal(ctx context.Context, blockID int64, hash, outcome string) error {
	query := `
		UPDATE blocks
		SET hash = $2, actual_outcome = $3
		WHERE id = $1 AND actual_outcome IS NULL
	`

	tag, err := r.q.Exec(ctx, query, blockID, hash, outcome)
	if err != nil {
		return fmt.Errorf("failed to reveal block %d: %w", blockID, database.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrBlockAlreadyResolved
	}
	return nil
}

// CountOpen returns the number of blocks whose outcome is still unknown.
func (r *BlockRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM blocks WHERE actual_outcome IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open blocks: %w", err)
	}
	return count, nil
}
