package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"olimport/src/domain/entities"
	"olimport/src/infra/kafka"
)

// AuthorRecordMessage is the schema of one record on the author topic
type AuthorRecordMessage struct {
	OLID         string    `json:"olid"`
	Name         string    `json:"name"`
	Revision     int64     `json:"revision"`
	LastModified time.Time `json:"last_modified"`
}

// AuthorWriter is the slice of the write repository the consumer needs.
type AuthorWriter interface {
	UpsertAuthors(ctx context.Context, authors []entities.Author) error
}

type AuthorRecordsConsumer struct {
	logger                *slog.Logger
	authorWriteRepository AuthorWriter
}

func NewAuthorRecordsConsumer(
	logger *slog.Logger,
	authorWriteRepository AuthorWriter,
) *AuthorRecordsConsumer {
	return &AuthorRecordsConsumer{
		logger:                logger,
		authorWriteRepository: authorWriteRepository,
	}
}

func (c *AuthorRecordsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting author records consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.handleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

func (c *AuthorRecordsConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing author records batch", "count", len(messages))

	// Deduplicate by olid, the highest revision in the batch wins
	authorsMap := make(map[string]entities.Author)
	var skipped int

	for _, msg := range messages {
		var record AuthorRecordMessage
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			// A broken message never becomes readable; skip it instead
			// of blocking the partition on redelivery
			c.logger.Error("Failed to unmarshal author record, skipping",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			skipped++
			continue
		}

		if record.OLID == "" {
			c.logger.Warn("Skipping author record without olid", "key", msg.Key)
			skipped++
			continue
		}

		if existing, ok := authorsMap[record.OLID]; ok && existing.Revision >= record.Revision {
			continue
		}

		authorsMap[record.OLID] = entities.Author{
			OLID:         record.OLID,
			Name:         record.Name,
			Revision:     record.Revision,
			LastModified: record.LastModified,
		}
	}

	if len(authorsMap) == 0 {
		c.logger.Warn("Batch contained no usable author records",
			"count", len(messages),
			"skipped", skipped)
		return nil
	}

	authors := make([]entities.Author, 0, len(authorsMap))
	for _, author := range authorsMap {
		authors = append(authors, author)
	}

	if err := c.authorWriteRepository.UpsertAuthors(ctx, authors); err != nil {
		c.logger.Error("Failed to upsert author records",
			"error", err,
			"authorsCount", len(authors))
		return fmt.Errorf("failed to upsert author records: %w", err)
	}

	c.logger.Info("Successfully processed author records batch",
		"count", len(messages),
		"authorsCount", len(authors),
		"skipped", skipped)

	return nil
}
