package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"hashguess/events"
	"hashguess/models"

	log "github.com/sirupsen/logrus"
)

// blockHashBytes sizes the random block hash (hex-encoded to twice this many
// characters).
const blockHashBytes = 16

// blockService implements the BlockService interface
type blockService struct {
	uowFactory UnitOfWorkFactory
}

// NewBlockService creates a new block lifecycle service
func NewBlockService(uowFactory UnitOfWorkFactory) BlockService {
	return &blockService{
		uowFactory: uowFactory,
	}
}

// OpenBlock creates a new open block. At most one block may be open at a
// time: the check runs under serializable isolation and the partial unique
// index on open blocks backstops concurrent callers.
func (s *blockService) OpenBlock(ctx context.Context) (*models.Block, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	latest, err := uow.BlockRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}
	if latest != nil && latest.Open() {
		return nil, models.ErrPriorBlockUnresolved
	}

	block, err := uow.BlockRepository().Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open block: %w", err)
	}

	uow.EventBus().Publish(events.BlockOpenedEvent{BlockID: block.ID})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("blockID", block.ID).Info("Block opened")
	return block, nil
}

// RevealOutcome generates the block's opaque hash, derives the outcome from
// it and writes both fields together, exactly once. Bets are not settled
// here; that is the resolution pass's job.
func (s *blockService) RevealOutcome(ctx context.Context, blockID int64) (string, error) {
	hash, outcome, err := generateBlockHash()
	if err != nil {
		return "", fmt.Errorf("failed to generate block hash: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	block, err := uow.BlockRepository().GetByIDForUpdate(ctx, blockID)
	if err != nil {
		return "", fmt.Errorf("failed to get block %d: %w", blockID, err)
	}
	if block == nil {
		return "", models.ErrNotFound
	}
	if !block.Open() {
		return "", models.ErrBlockAlreadyResolved
	}

	if err := uow.BlockRepository().Reveal(ctx, blockID, hash, outcome); err != nil {
		return "", fmt.Errorf("failed to reveal block %d: %w", blockID, err)
	}

	uow.EventBus().Publish(events.BlockRevealedEvent{
		BlockID: blockID,
		Hash:    hash,
		Outcome: outcome,
	})

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"blockID": blockID,
		"outcome": outcome,
	}).Info("Block outcome revealed")

	return outcome, nil
}

// generateBlockHash returns a random hex hash and the outcome derived from
// it. The outcome is the hash's last character: deterministic given the hash,
// unknowable before it exists.
func generateBlockHash() (hash, outcome string, err error) {
	buf := make([]byte, blockHashBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	hash = hex.EncodeToString(buf)
	outcome = hash[len(hash)-1:]
	return hash, outcome, nil
}
