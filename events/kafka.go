/*
Package events provides EventSink implementations.

PURPOSE:
  Publishes claim lifecycle events to a named Kafka topic. The engine
  treats publication as fire-and-forget; delivery guarantees beyond
  at-least-once are out of scope here.

PAYLOAD:
  JSON-encoded promo.ClaimEvent. Amounts are exact decimal strings,
  timestamps RFC 3339. Messages are keyed by claim ID so a claim's
  events land on one partition in order.

SEE ALSO:
  - promo/store.go: The EventSink interface and payload type
  - promo/store/memory.go: MemorySink for tests
*/
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// KAFKA SINK
// =============================================================================

type KafkaSink struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "kafka-sink").Str("topic", topic).Logger(),
	}
}

func (s *KafkaSink) PublishClaimCreated(ctx context.Context, ev promo.ClaimEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode claim event")
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ClaimID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s for claim %s", ev.Type, ev.ClaimID)
	}
	s.logger.Debug().
		Str("claim_id", ev.ClaimID).
		Str("amount", ev.Amount).
		Msg("claim event published")
	return nil
}

func (s *KafkaSink) Close() error { return s.writer.Close() }

// =============================================================================
// LOG SINK - For running without a broker
// =============================================================================

// LogSink writes events to the log instead of a broker. Used by
// cmd/engine when no Kafka brokers are configured.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) PublishClaimCreated(_ context.Context, ev promo.ClaimEvent) error {
	s.Logger.Info().
		Str("type", ev.Type).
		Str("claim_id", ev.ClaimID).
		Str("promotion_id", ev.PromotionID).
		Str("amount", ev.Amount).
		Str("customer_id", ev.CustomerID).
		Str("timestamp", ev.Timestamp).
		Msg("event")
	return nil
}
