package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"olimport/src/domain/entities"
	"olimport/src/infra/kafka"

	"github.com/google/uuid"
)

// RecordPublisher pushes normalized author records onto the record topic
// so downstream consumers can apply them to their own stores.
type RecordPublisher struct {
	logger      *slog.Logger
	kafkaClient *kafka.KafkaClient
	topic       string
}

func NewRecordPublisher(
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	topic string,
) *RecordPublisher {
	return &RecordPublisher{
		logger:      logger,
		kafkaClient: kafkaClient,
		topic:       topic,
	}
}

// PublishAuthors publishes one batch of author records. Messages are keyed
// by olid so every revision of an author lands on the same partition, in
// order.
func (p *RecordPublisher) PublishAuthors(ctx context.Context, authors []entities.Author) error {
	if len(authors) == 0 {
		return nil
	}

	p.logger.Debug("Publishing author records batch", "count", len(authors))

	kafkaMessages := make([]kafka.Message, 0, len(authors))

	for _, author := range authors {
		recordBytes, err := json.Marshal(author)
		if err != nil {
			p.logger.Error("Failed to marshal author record",
				"error", err,
				"olid", author.OLID)
			continue
		}

		kafkaMessages = append(kafkaMessages, kafka.Message{
			Key:     author.OLID,
			Value:   recordBytes,
			Headers: p.createRecordHeaders(author),
		})
	}

	if err := p.kafkaClient.Producer(kafkaMessages, p.topic); err != nil {
		p.logger.Error("Failed to publish author records to Kafka",
			"error", err,
			"topic", p.topic,
			"records_count", len(kafkaMessages))
		return fmt.Errorf("failed to publish author records to topic %s: %w", p.topic, err)
	}

	p.logger.Info("Successfully published author records",
		"topic", p.topic,
		"records_count", len(kafkaMessages))

	return nil
}

// createRecordHeaders builds Kafka headers for consumer-side filtering
func (p *RecordPublisher) createRecordHeaders(author entities.Author) map[string]string {
	headers := map[string]string{
		"event_type":     "author_record_imported",
		"source_service": "olimport",
		"schema_version": "v1",
		"event_id":       uuid.New().String(),
	}

	if author.Name != "" {
		headers["has_name"] = "true"
	}

	return headers
}
