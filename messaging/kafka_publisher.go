package messaging

import (
	"context"
	"encoding/json"
	"time"

	"hashguess/events"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// LedgerEvent is the wire format for ledger events published to Kafka.
type LedgerEvent struct {
	Type       string `json:"type"`
	BetID      int64  `json:"bet_id,omitempty"`
	PlayerID   int64  `json:"player_id,omitempty"`
	BlockID    int64  `json:"block_id,omitempty"`
	Prediction string `json:"prediction,omitempty"`
	StakeCents int64  `json:"stake_cents,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Count      int64  `json:"count,omitempty"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

// KafkaPublisher forwards committed ledger events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Subscribe attaches the publisher to the in-process event bus. Only events
// that survive their transaction's commit reach the bus, so downstream
// consumers never see rolled-back state.
func (p *KafkaPublisher) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetPlaced, p.handle)
	bus.Subscribe(events.EventTypeBlockRevealed, p.handle)
	bus.Subscribe(events.EventTypeBetsResolved, p.handle)
}

func (p *KafkaPublisher) handle(ctx context.Context, e events.Event) {
	msg := LedgerEvent{
		Type:     string(e.Type()),
		TsUnixMs: time.Now().UnixMilli(),
	}

	switch ev := e.(type) {
	case events.BetPlacedEvent:
		msg.BetID = ev.BetID
		msg.PlayerID = ev.PlayerID
		msg.BlockID = ev.BlockID
		msg.Prediction = ev.Prediction
		msg.StakeCents = ev.Stake
	case events.BlockRevealedEvent:
		msg.BlockID = ev.BlockID
		msg.Outcome = ev.Outcome
	case events.BetsResolvedEvent:
		msg.Count = ev.Count
	}

	b, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("Failed to marshal ledger event")
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
		log.WithFields(log.Fields{
			"eventType": e.Type(),
		}).WithError(err).Error("Failed to publish ledger event")
	}
}
