package models

import "time"

// Block represents one round of the guessing game. A block is created open
// (hash and outcome both unset) and transitions exactly once to closed when
// the outcome is revealed; both fields are written together.
type Block struct {
	ID            int64     `db:"id"`
	Hash          *string   `db:"hash"`
	ActualOutcome *string   `db:"actual_outcome"`
	CreatedAt     time.Time `db:"created_at"`
}

// Open reports whether the block is still accepting bets.
func (b *Block) Open() bool {
	return b.ActualOutcome == nil
}
