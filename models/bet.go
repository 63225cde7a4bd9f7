package models

import "time"

// MaxActiveBets is the cap on unresolved bets a single player may hold.
// The bets table carries a constraint trigger enforcing the same cap at
// insert time.
const MaxActiveBets = 5

// Bet represents a wager on a block's outcome. Stake is in cents. Resolved
// and IsWin transition together, exactly once, when the referenced block's
// outcome is settled against the prediction.
type Bet struct {
	ID         int64     `db:"id"`
	PlayerID   int64     `db:"player_id"`
	BlockID    int64     `db:"block_id"`
	Prediction string    `db:"prediction"`
	Stake      int64     `db:"stake"`
	PlacedAt   time.Time `db:"placed_at"`
	Resolved   bool      `db:"resolved"`
	IsWin      *bool     `db:"is_win"`
}
