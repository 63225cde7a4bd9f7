package models

import (
	"time"
)

// Player represents an account holding a monetary balance. Balance is stored
// in cents (fixed-point, scale 2) and is never negative at a committed state.
type Player struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
