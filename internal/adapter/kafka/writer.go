package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/domain"
)

// Writer publishes updated location records to a Kafka topic so downstream
// consumers see each collection as it lands.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one updated record and writes it, keyed by location ID
// so all updates for a location land on the same partition.
func (w *Writer) Publish(ctx context.Context, rec domain.LocationRecord, collectionDate domain.Date) error {
	msg, err := serializeToMessage(rec, collectionDate)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LocationRecord into a Kafka message.
func serializeToMessage(rec domain.LocationRecord, collectionDate domain.Date) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize location record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(rec.Region)},
			{Key: "collected_on", Value: []byte(collectionDate.String())},
		},
	}, nil
}
