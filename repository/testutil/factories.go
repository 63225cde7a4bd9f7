package testutil

import (
	"fmt"

	"hashguess/models"
)

// CreateTestBet builds an unresolved bet with default prediction and stake
func CreateTestBet(playerID, blockID int64) *models.Bet {
	return &models.Bet{
		PlayerID:   playerID,
		BlockID:    blockID,
		Prediction: "c",
		Stake:      1000,
	}
}

// CreateTestBetWithStake builds an unresolved bet with a specific stake
func CreateTestBetWithStake(playerID, blockID int64, stake int64) *models.Bet {
	bet := CreateTestBet(playerID, blockID)
	bet.Stake = stake
	return bet
}

// TestEmail derives a unique email for a username
func TestEmail(username string) string {
	return fmt.Sprintf("%s@example.com", username)
}
