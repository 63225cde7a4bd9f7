package service

import (
	"context"
	"fmt"

	"hashguess/events"

	log "github.com/sirupsen/logrus"
)

// resolutionService implements the ResolutionService interface
type resolutionService struct {
	uowFactory UnitOfWorkFactory
}

// NewResolutionService creates a new resolution service
func NewResolutionService(uowFactory UnitOfWorkFactory) ResolutionService {
	return &resolutionService{
		uowFactory: uowFactory,
	}
}

// ResolveClosedBlocks settles every unresolved bet whose block has a revealed
// outcome, in one atomic batch. Re-invoking after all eligible bets are
// settled resolves zero rows. Winnings are not credited here; resolution only
// flags win or loss.
func (s *resolutionService) ResolveClosedBlocks(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	count, err := uow.BetRepository().ResolveForClosedBlocks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve bets: %w", err)
	}

	if count > 0 {
		uow.EventBus().Publish(events.BetsResolvedEvent{Count: count})
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if count > 0 {
		log.WithField("count", count).Info("Bets resolved")
	}

	return count, nil
}
