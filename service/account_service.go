package service

import (
	"context"
	"fmt"

	"hashguess/events"
	"hashguess/models"

	log "github.com/sirupsen/logrus"
)

// accountService implements the AccountService interface
type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// CreateAccount creates a player or returns the existing account for the
// username. Duplicate usernames are not an error.
func (s *accountService) CreateAccount(ctx context.Context, username, email string) (*models.Player, error) {
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	if email == "" {
		return nil, fmt.Errorf("email must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.PlayerRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing player: %w", err)
	}

	player, err := uow.PlayerRepository().Upsert(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if existing == nil {
		uow.EventBus().Publish(events.AccountCreatedEvent{
			PlayerID: player.ID,
			Username: player.Username,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if existing == nil {
		log.WithFields(log.Fields{
			"playerID": player.ID,
			"username": player.Username,
		}).Info("Account created")
	}

	return player, nil
}

// Credit atomically adds amount to the player's balance and records a payment
// audit row in the same transaction.
func (s *accountService) Credit(ctx context.Context, playerID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	newBalance, err := uow.PlayerRepository().Credit(ctx, playerID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit player %d: %w", playerID, err)
	}

	payment := &models.Payment{
		PlayerID: playerID,
		Amount:   amount,
	}
	if err := uow.PaymentRepository().Record(ctx, payment); err != nil {
		return 0, fmt.Errorf("failed to record payment: %w", err)
	}

	uow.EventBus().Publish(events.BalanceCreditEvent{
		PlayerID:   playerID,
		Amount:     amount,
		NewBalance: newBalance,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return newBalance, nil
}

// GetPlayer retrieves a player by id
func (s *accountService) GetPlayer(ctx context.Context, playerID int64) (*models.Player, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := uow.PlayerRepository().GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	if player == nil {
		return nil, models.ErrNotFound
	}
	return player, nil
}
