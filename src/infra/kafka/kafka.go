package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// claimFlushInterval bounds how long a partially filled batch waits
// before it is handed to the application anyway.
const claimFlushInterval = 2 * time.Second

type KafkaClient struct {
	logger    *slog.Logger
	consumer  sarama.ConsumerGroup
	producer  sarama.SyncProducer
	batchSize int
}

type Message struct {
	Key      string
	Value    []byte
	Headers  map[string]string
	internal *sarama.ConsumerMessage
}

type Handler func(messages []Message) error

func NewKafkaClient(logger *slog.Logger, brokers string, groupID string, batchSize int) (*KafkaClient, error) {
	brokerList := strings.Split(brokers, ",")
	config := newSaramaConfig(batchSize)

	consumer, err := sarama.NewConsumerGroup(brokerList, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %q: %w", groupID, err)
	}

	producer, err := sarama.NewSyncProducer(brokerList, config)
	if err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("Kafka client initialized",
		"brokers", brokerList,
		"group_id", groupID,
		"batch_size", batchSize)

	return &KafkaClient{
		logger:    logger,
		consumer:  consumer,
		producer:  producer,
		batchSize: batchSize,
	}, nil
}

func newSaramaConfig(batchSize int) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V3_6_0_0

	// Records are applied in bulk, so a consumer that joins late has to
	// replay everything it missed rather than start at the head.
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	config.Consumer.Group.Session.Timeout = 45 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 15 * time.Second
	// Applying a full batch of upserts can take a while on a cold database.
	config.Consumer.MaxProcessingTime = 2 * time.Minute
	config.Consumer.Fetch.Min = 1024 * 1024
	config.Consumer.Fetch.Default = 10 * 1024 * 1024
	config.Consumer.MaxWaitTime = 250 * time.Millisecond
	config.ChannelBufferSize = batchSize

	// Imported records must survive a broker failover, so the producer
	// waits for the full ISR and keeps retries idempotent.
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionZSTD
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 200
	config.Producer.Flush.Bytes = 1024 * 1024
	// Author payloads are small, but a safety margin costs nothing.
	config.Producer.MaxMessageBytes = 2 * 1024 * 1024

	return config
}

// Consumer joins the group and feeds batches of messages to handler until
// ctx is cancelled. Consume returns on every rebalance, hence the loop.
func (k *KafkaClient) Consumer(ctx context.Context, handler Handler, topic string) error {
	claimHandler := &batchClaimHandler{
		logger: k.logger,
		apply:  handler,
		size:   k.batchSize,
	}

	for {
		if ctx.Err() != nil {
			k.logger.Info("Kafka consumer stopped", "topic", topic)
			return nil
		}

		err := k.consumer.Consume(ctx, []string{topic}, claimHandler)
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}

		k.logger.Error("Kafka consume failed, retrying", "topic", topic, "error", err)
		time.Sleep(5 * time.Second)
	}
}

// Producer sends the whole batch in one synchronous call and reports how
// many individual messages failed, if any.
func (k *KafkaClient) Producer(messages []Message, topic string) error {
	if len(messages) == 0 {
		return nil
	}

	batch := make([]*sarama.ProducerMessage, 0, len(messages))
	for _, msg := range messages {
		headers := make([]sarama.RecordHeader, 0, len(msg.Headers))
		for key, value := range msg.Headers {
			headers = append(headers, sarama.RecordHeader{
				Key:   []byte(key),
				Value: []byte(value),
			})
		}

		batch = append(batch, &sarama.ProducerMessage{
			Topic:   topic,
			Key:     sarama.StringEncoder(msg.Key),
			Value:   sarama.ByteEncoder(msg.Value),
			Headers: headers,
		})
	}

	if err := k.producer.SendMessages(batch); err != nil {
		var producerErrors sarama.ProducerErrors
		if errors.As(err, &producerErrors) {
			for _, pe := range producerErrors {
				k.logger.Error("Message send failed",
					"topic", topic,
					"error", pe.Err)
			}
			return fmt.Errorf("batch send failed: %d/%d messages failed", len(producerErrors), len(batch))
		}
		return fmt.Errorf("batch send failed: %w", err)
	}

	k.logger.Debug("Batch sent", "topic", topic, "messages", len(batch))
	return nil
}

func (k *KafkaClient) Close() error {
	// Producer first so pending sends flush before the group rebalances.
	return errors.Join(k.producer.Close(), k.consumer.Close())
}

// batchClaimHandler implements sarama.ConsumerGroupHandler. It groups
// claimed messages into batches of size, flushing early on a timer so a
// quiet topic still makes progress.
type batchClaimHandler struct {
	logger *slog.Logger
	apply  Handler
	size   int
}

func (h *batchClaimHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka session started", "claims", session.Claims())
	return nil
}

func (h *batchClaimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *batchClaimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	pending := make([]Message, 0, h.size)
	timer := time.NewTimer(claimFlushInterval)
	defer timer.Stop()

	for {
		select {
		case raw := <-claim.Messages():
			if raw == nil {
				h.flush(session, pending)
				return nil
			}

			pending = append(pending, fromConsumerMessage(raw))
			if len(pending) >= h.size {
				pending = h.flush(session, pending)
				timer.Reset(claimFlushInterval)
			}

		case <-timer.C:
			pending = h.flush(session, pending)
			timer.Reset(claimFlushInterval)

		case <-session.Context().Done():
			h.flush(session, pending)
			return nil
		}
	}
}

// flush hands the pending batch to the application and marks it consumed
// on success. A failed batch is logged and dropped; its offsets stay
// unmarked, but the claim keeps going and the next successful mark on the
// partition commits past them.
func (h *batchClaimHandler) flush(session sarama.ConsumerGroupSession, pending []Message) []Message {
	if len(pending) == 0 {
		return pending
	}

	if err := h.apply(pending); err != nil {
		h.logger.Error("Batch handler failed, offsets not committed",
			"messages", len(pending),
			"error", err)
		return pending[:0]
	}

	for _, msg := range pending {
		if msg.internal != nil {
			session.MarkMessage(msg.internal, "")
		}
	}

	return pending[:0]
}

func fromConsumerMessage(raw *sarama.ConsumerMessage) Message {
	headers := make(map[string]string, len(raw.Headers))
	for _, header := range raw.Headers {
		headers[string(header.Key)] = string(header.Value)
	}

	return Message{
		Key:      string(raw.Key),
		Value:    raw.Value,
		Headers:  headers,
		internal: raw,
	}
}
