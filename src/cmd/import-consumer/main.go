package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"olimport/src/adapters/kafka/consumers"
	"olimport/src/helper/env"
	"olimport/src/infra/kafka"
	"olimport/src/infra/postgres"
	"olimport/src/infra/redis"
	"olimport/src/repositories"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newRedisClient,
			newKafkaClient,
			newCachedAuthorRepository,
			newAuthorWriteRepository,
			newAuthorRecordsConsumer,
		),
		fx.Invoke(registerConsumerHooks),
	).Run()
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func newLogger() *slog.Logger {
	level := logLevels[env.GetString("LOG_LEVEL", "info")]

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger
}

func newReadWriteClient() (*postgres.ReadWriteClient, error) {
	return postgres.NewReadWriteClient(postgres.ReadWriteConfig{
		ReadHost:       env.MustGetString("DB_READ_HOST"),
		ReadPort:       env.GetString("DB_READ_PORT", "5432"),
		WriteHost:      env.MustGetString("DB_WRITE_HOST"),
		WritePort:      env.GetString("DB_WRITE_PORT", "5432"),
		Database:       env.MustGetString("DB_NAME"),
		User:           env.MustGetString("DB_USER"),
		Password:       env.MustGetString("DB_PASSWORD"),
		MaxConnections: env.GetInt("DB_MAX_POOL_CONNECTIONS", 25),
	})
}

func newRedisClient() *redis.RedisClient {
	ttl := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)) * time.Second

	return redis.NewRedisClient(
		env.MustGetString("REDIS_HOSTS"),
		env.GetInt("REDIS_POOL_SIZE", 50),
		ttl,
	)
}

func newKafkaClient(logger *slog.Logger) (*kafka.KafkaClient, error) {
	return kafka.NewKafkaClient(
		logger,
		env.MustGetString("KAFKA_BROKERS"),
		env.MustGetString("KAFKA_AUTHOR_RECORDS_CONSUMER_GROUP_ID"),
		env.MustGetInt("KAFKA_BATCH_SIZE"),
	)
}

func newCachedAuthorRepository(
	redisClient *redis.RedisClient,
) *repositories.CachedAuthorRepository {
	return repositories.NewCachedAuthorRepository(nil, redisClient)
}

func newAuthorWriteRepository(
	readWriteClient *postgres.ReadWriteClient,
	cachedAuthorRepository *repositories.CachedAuthorRepository,
) *repositories.AuthorWriteRepository {
	return repositories.NewAuthorWriteRepository(readWriteClient.GetWritePool(), cachedAuthorRepository)
}

func newAuthorRecordsConsumer(
	logger *slog.Logger,
	authorWriteRepository *repositories.AuthorWriteRepository,
) *consumers.AuthorRecordsConsumer {
	return consumers.NewAuthorRecordsConsumer(logger, authorWriteRepository)
}

func registerConsumerHooks(
	lc fx.Lifecycle,
	logger *slog.Logger,
	readWriteClient *postgres.ReadWriteClient,
	kafkaClient *kafka.KafkaClient,
	authorRecordsConsumer *consumers.AuthorRecordsConsumer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.GetString("KAFKA_AUTHOR_RECORDS_TOPIC")
			logger.Info("Starting author records consumer", "topic", topic)

			// The hook ctx dies once startup finishes; the consumer
			// runs until the kafka client is closed on shutdown
			go func() {
				if err := authorRecordsConsumer.Start(context.Background(), kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down author records consumer...")

			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}
			readWriteClient.Close()

			logger.Info("Author records consumer shut down gracefully")
			return nil
		},
	})
}
