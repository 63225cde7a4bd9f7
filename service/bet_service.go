package service

import (
	"context"
	"fmt"

	"hashguess/events"
	"hashguess/models"

	log "github.com/sirupsen/logrus"
)

// betService implements the BetService interface
type betService struct {
	uowFactory UnitOfWorkFactory
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory) BetService {
	return &betService{
		uowFactory: uowFactory,
	}
}

// PlaceBet validates and records a wager in a single transaction. The player
// row stays exclusively locked from the balance check through the debit, so
// two concurrent placements against the same balance serialize: one wins, the
// other sees the post-debit balance.
func (s *betService) PlaceBet(ctx context.Context, playerID, blockID int64, prediction string, stake int64) (*models.Bet, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("stake must be positive")
	}
	if len(prediction) != 1 {
		return nil, fmt.Errorf("prediction must be a single character")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	player, err := uow.PlayerRepository().GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %d: %w", playerID, err)
	}
	if player == nil {
		return nil, models.ErrNotFound
	}

	if player.Balance < stake {
		return nil, models.ErrInsufficientFunds
	}

	block, err := uow.BlockRepository().GetByID(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", blockID, err)
	}
	if block == nil {
		return nil, models.ErrNotFound
	}
	if !block.Open() {
		return nil, models.ErrBlockClosed
	}

	activeCount, err := uow.BetRepository().CountUnresolvedByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active bets: %w", err)
	}
	if activeCount >= models.MaxActiveBets {
		return nil, models.ErrTooManyActiveBets
	}

	if err := uow.PlayerRepository().Debit(ctx, playerID, stake); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	bet := &models.Bet{
		PlayerID:   playerID,
		BlockID:    blockID,
		Prediction: prediction,
		Stake:      stake,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:      bet.ID,
		PlayerID:   playerID,
		BlockID:    blockID,
		Prediction: prediction,
		Stake:      stake,
		NewBalance: player.Balance - stake,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":    bet.ID,
		"playerID": playerID,
		"blockID":  blockID,
		"stake":    stake,
	}).Info("Bet placed")

	return bet, nil
}
