package metrics

import (
	"context"

	"hashguess/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_accounts_created_total",
		Help: "Number of player accounts created.",
	})

	creditsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_credits_total",
		Help: "Number of balance credits applied.",
	})

	creditedCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_credited_cents_total",
		Help: "Total cents credited to player balances.",
	})

	betsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_bets_placed_total",
		Help: "Number of bets accepted.",
	})

	stakedCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_staked_cents_total",
		Help: "Total cents staked on accepted bets.",
	})

	blocksOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_blocks_opened_total",
		Help: "Number of blocks opened.",
	})

	blocksRevealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_blocks_revealed_total",
		Help: "Number of block outcomes revealed.",
	})

	betsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashguess_bets_resolved_total",
		Help: "Number of bets settled by resolution passes.",
	})
)

// RegisterEventHandlers wires the ledger's event bus into the prometheus
// counters. Events are only emitted after their transaction committed, so
// the counters track committed state.
func RegisterEventHandlers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, e events.Event) {
		accountsCreated.Inc()
	})
	bus.Subscribe(events.EventTypeBalanceCredit, func(ctx context.Context, e events.Event) {
		creditsApplied.Inc()
		if ev, ok := e.(events.BalanceCreditEvent); ok {
			creditedCents.Add(float64(ev.Amount))
		}
	})
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		betsPlaced.Inc()
		if ev, ok := e.(events.BetPlacedEvent); ok {
			stakedCents.Add(float64(ev.Stake))
		}
	})
	bus.Subscribe(events.EventTypeBlockOpened, func(ctx context.Context, e events.Event) {
		blocksOpened.Inc()
	})
	bus.Subscribe(events.EventTypeBlockRevealed, func(ctx context.Context, e events.Event) {
		blocksRevealed.Inc()
	})
	bus.Subscribe(events.EventTypeBetsResolved, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BetsResolvedEvent); ok {
			betsResolved.Add(float64(ev.Count))
		}
	})
}
