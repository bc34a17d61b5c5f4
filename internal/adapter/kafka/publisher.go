// Package kafka publishes in-AOI events for downstream alerting consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mitchk23/disaster-intel-tool/internal/config"
	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// Publisher produces one message per located event to a Kafka topic.
// It implements pipeline.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishEvents serializes and publishes a snapshot's in-AOI events in a
// single WriteMessages call.
func (p *Publisher) PublishEvents(ctx context.Context, snapshotID string, events []domain.Located) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(snapshotID, events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a located event into a Kafka message. The key
// is source-scoped so replays of the same event land on one partition.
func serializeToMessage(snapshotID string, ev domain.Located) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize located event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%s/%s", ev.Source, ev.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(ev.Source)},
			{Key: "snapshot_id", Value: []byte(snapshotID)},
		},
	}, nil
}
