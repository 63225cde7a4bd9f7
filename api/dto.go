package api

// CreateAccountRequest asks for a new player account. Creation is idempotent
// on username.
type CreateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateAccountResponse returns the (possibly pre-existing) account.
type CreateAccountResponse struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
	Balance  int64  `json:"balance_cents"`
}

// CreditRequest tops up a player's balance. Amount is in cents.
type CreditRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// CreditResponse returns the balance after the credit.
type CreditResponse struct {
	PlayerID   int64 `json:"player_id"`
	NewBalance int64 `json:"new_balance_cents"`
}

// OpenBlockResponse returns the freshly opened block.
type OpenBlockResponse struct {
	BlockID int64 `json:"block_id"`
}

// RevealResponse returns the revealed outcome character.
type RevealResponse struct {
	BlockID int64  `json:"block_id"`
	Outcome string `json:"outcome"`
}

// PlaceBetRequest stakes amount_cents on a block's outcome.
type PlaceBetRequest struct {
	PlayerID   int64  `json:"player_id"`
	BlockID    int64  `json:"block_id"`
	Prediction string `json:"prediction"`
	StakeCents int64  `json:"stake_cents"`
}

// PlaceBetResponse returns the accepted bet.
type PlaceBetResponse struct {
	BetID int64 `json:"bet_id"`
}

// ResolveResponse returns the number of bets settled by a resolution pass.
type ResolveResponse struct {
	Resolved int64 `json:"resolved"`
}

// ErrorResponse carries a machine-readable error kind and a message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
