package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hashguess/events"
	"hashguess/models"
	"hashguess/repository"
	"hashguess/repository/testutil"
	"hashguess/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerFixture wires real repositories, services and a serializable unit of
// work factory against a test database.
type ledgerFixture struct {
	db         *testutil.TestDatabase
	accounts   service.AccountService
	blocks     service.BlockService
	bets       service.BetService
	resolution service.ResolutionService
	betRepo    *repository.BetRepository
	blockRepo  *repository.BlockRepository
	playerRepo *repository.PlayerRepository
}

func setupLedger(t *testing.T) *ledgerFixture {
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, bus, 3*time.Second)

	return &ledgerFixture{
		db:         testDB,
		accounts:   service.NewAccountService(uowFactory),
		blocks:     service.NewBlockService(uowFactory),
		bets:       service.NewBetService(uowFactory),
		resolution: service.NewResolutionService(uowFactory),
		betRepo:    repository.NewBetRepository(testDB.DB),
		blockRepo:  repository.NewBlockRepository(testDB.DB),
		playerRepo: repository.NewPlayerRepository(testDB.DB),
	}
}

// placeBetWithRetry retries on serialization conflicts and lock timeouts.
// Under serializable isolation a losing race surfaces as a retryable error;
// the retry then resolves to the business outcome.
func placeBetWithRetry(ctx context.Context, svc service.BetService, playerID, blockID int64, prediction string, stake int64) (*models.Bet, error) {
	var bet *models.Bet
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		bet, err = svc.PlaceBet(ctx, playerID, blockID, prediction, stake)
		if !models.IsRetryable(err) {
			return bet, err
		}
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return bet, err
}

func creditWithRetry(ctx context.Context, svc service.AccountService, playerID, amount int64) (int64, error) {
	var balance int64
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		balance, err = svc.Credit(ctx, playerID, amount)
		if !models.IsRetryable(err) {
			return balance, err
		}
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return balance, err
}

func TestLedger_FullLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	// Register and fund a player
	alice, err := f.accounts.CreateAccount(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.Balance)

	balance, err := f.accounts.Credit(ctx, alice.ID, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	// Re-registration returns the same account untouched
	again, err := f.accounts.CreateAccount(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, again.ID)
	assert.Equal(t, int64(10000), again.Balance)

	// Open a block and place bets on it
	block, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)

	betC, err := f.bets.PlaceBet(ctx, alice.ID, block.ID, "c", 2500)
	require.NoError(t, err)
	betD, err := f.bets.PlaceBet(ctx, alice.ID, block.ID, "d", 1500)
	require.NoError(t, err)

	player, err := f.accounts.GetPlayer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), player.Balance)

	// Another block cannot open while this one is unresolved
	_, err = f.blocks.OpenBlock(ctx)
	assert.ErrorIs(t, err, models.ErrPriorBlockUnresolved)

	// Reveal the outcome; betting on the block closes
	outcome, err := f.blocks.RevealOutcome(ctx, block.ID)
	require.NoError(t, err)
	require.Len(t, outcome, 1)

	_, err = f.bets.PlaceBet(ctx, alice.ID, block.ID, "c", 100)
	assert.ErrorIs(t, err, models.ErrBlockClosed)

	// A second reveal is rejected
	_, err = f.blocks.RevealOutcome(ctx, block.ID)
	assert.ErrorIs(t, err, models.ErrBlockAlreadyResolved)

	// Settle bets; win matches prediction against the revealed outcome
	count, err := f.resolution.ResolveClosedBlocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, placed := range []*models.Bet{betC, betD} {
		got, err := f.betRepo.GetByID(ctx, placed.ID)
		require.NoError(t, err)
		require.True(t, got.Resolved)
		require.NotNil(t, got.IsWin)
		assert.Equal(t, placed.Prediction == outcome, *got.IsWin)
	}

	// Resolution is idempotent
	count, err = f.resolution.ResolveClosedBlocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Stakes stay debited; resolution does not touch balances
	player, err = f.accounts.GetPlayer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), player.Balance)

	// The resolved block allows a new one to open
	next, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)
	assert.Greater(t, next.ID, block.ID)
}

func TestLedger_InsufficientFunds_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	bob, err := f.accounts.CreateAccount(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	_, err = f.accounts.Credit(ctx, bob.ID, 500)
	require.NoError(t, err)

	block, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)

	_, err = f.bets.PlaceBet(ctx, bob.ID, block.ID, "c", 1000)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	player, err := f.accounts.GetPlayer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), player.Balance)

	count, err := f.betRepo.CountUnresolvedByPlayer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLedger_ActiveBetCap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	carol, err := f.accounts.CreateAccount(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	_, err = f.accounts.Credit(ctx, carol.ID, 10000)
	require.NoError(t, err)

	block, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)

	for i := 0; i < models.MaxActiveBets; i++ {
		_, err := f.bets.PlaceBet(ctx, carol.ID, block.ID, "a", 100)
		require.NoError(t, err)
	}

	_, err = f.bets.PlaceBet(ctx, carol.ID, block.ID, "a", 100)
	assert.ErrorIs(t, err, models.ErrTooManyActiveBets)

	// Settling the block frees the cap for the next one
	_, err = f.blocks.RevealOutcome(ctx, block.ID)
	require.NoError(t, err)
	_, err = f.resolution.ResolveClosedBlocks(ctx)
	require.NoError(t, err)

	next, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)
	_, err = f.bets.PlaceBet(ctx, carol.ID, next.ID, "a", 100)
	assert.NoError(t, err)
}

func TestLedger_ConcurrentStakeOnSameBalance_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	dave, err := f.accounts.CreateAccount(ctx, "dave", "dave@example.com")
	require.NoError(t, err)
	_, err = f.accounts.Credit(ctx, dave.ID, 1000)
	require.NoError(t, err)

	block, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)

	// Two placements each staking the entire balance
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = placeBetWithRetry(ctx, f.bets, dave.ID, block.ID, "c", 1000)
		}(i)
	}
	wg.Wait()

	// Exactly one wins the race; the other sees the drained balance
	var successes, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, insufficient)

	player, err := f.accounts.GetPlayer(ctx, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), player.Balance)
}

func TestLedger_ConcurrentBetCap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	erin, err := f.accounts.CreateAccount(ctx, "erin", "erin@example.com")
	require.NoError(t, err)
	_, err = f.accounts.Credit(ctx, erin.ID, 100000)
	require.NoError(t, err)

	block, err := f.blocks.OpenBlock(ctx)
	require.NoError(t, err)

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = placeBetWithRetry(ctx, f.bets, erin.ID, block.ID, "c", 100)
		}(i)
	}
	wg.Wait()

	var successes, capped int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrTooManyActiveBets):
			capped++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, models.MaxActiveBets, successes)
	assert.Equal(t, attempts-models.MaxActiveBets, capped)

	count, err := f.betRepo.CountUnresolvedByPlayer(ctx, erin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxActiveBets, count)
}

func TestLedger_ConcurrentBlockOpen_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	const attempts = 4
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := f.blocks.OpenBlock(ctx)
			results[slot] = err
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrPriorBlockUnresolved), models.IsRetryable(err):
			// Losing racers see the open block or the serialization conflict
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)

	open, err := f.blockRepo.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, open)
}

func TestLedger_ConcurrentCredits_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	f := setupLedger(t)
	ctx := context.Background()

	frank, err := f.accounts.CreateAccount(ctx, "frank", "frank@example.com")
	require.NoError(t, err)

	const workers = 10
	const amount = int64(250)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := creditWithRetry(ctx, f.accounts, frank.ID, amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	player, err := f.accounts.GetPlayer(ctx, frank.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*amount, player.Balance)
}
