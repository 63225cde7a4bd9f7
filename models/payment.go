package models

import "time"

// Payment is the audit record written for every credit applied to a player's
// balance. Amount is in cents and always positive.
type Payment struct {
	ID        int64     `db:"id"`
	PlayerID  int64     `db:"player_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}
