package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"olimport/src/helper/env"
	"olimport/src/infra/elasticsearch"
	"olimport/src/infra/kafka"
	"olimport/src/infra/postgres"
	"olimport/src/infra/redis"
	"olimport/src/repositories"
	"olimport/src/services/events"
	"olimport/src/services/importer"
)

func main() {
	log.SetOutput(os.Stdout)

	filePath := flag.String("file", "", "Path to the author dump file (.txt or .txt.gz)")
	batchSize := flag.Int("batch-size", importer.DefaultBatchSize, "Records per submitted batch")
	workers := flag.Int("workers", importer.DefaultWorkers, "Concurrent batch submitters")
	resume := flag.Bool("resume", false, "Resume from the file's last checkpoint")
	skipMalformed := flag.Bool("skip-malformed", false, "Skip malformed lines instead of stopping the run")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping import...")
		cancel()
	}()

	deps, err := buildDependencies(logger)
	if err != nil {
		log.Fatalf("Failed to build import dependencies: %v", err)
	}
	defer deps.close()

	importerService := importer.NewImporterService(logger, deps.sinks, deps.checkpointRepository)

	report, err := importerService.Run(ctx, importer.Config{
		File:          *filePath,
		BatchSize:     *batchSize,
		Workers:       *workers,
		Resume:        *resume,
		SkipMalformed: *skipMalformed,
	})
	if err != nil {
		deps.close()
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import finished: %d records submitted in %d batches (%s)",
		report.Submitted, report.Batches, report.Elapsed)
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

// dependencies bundles the sinks selected by IMPORT_SINKS plus everything
// that needs closing on the way out.
type dependencies struct {
	sinks                []importer.Sink
	checkpointRepository *repositories.CheckpointRepository
	closers              []func()
}

func (d *dependencies) close() {
	for _, closeFn := range d.closers {
		closeFn()
	}
}

func buildDependencies(logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	// Redis is optional for the importer; without it there are no
	// checkpoints and no cache invalidation, the import still works.
	var redisClient *redis.RedisClient
	if redisHosts := env.GetString("REDIS_HOSTS"); redisHosts != "" {
		redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
		redisDefaultTTLSeconds := env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)
		redisClient = redis.NewRedisClient(redisHosts, redisPoolSize, time.Duration(redisDefaultTTLSeconds)*time.Second)
		deps.checkpointRepository = repositories.NewCheckpointRepository(redisClient)
		deps.closers = append(deps.closers, func() { redisClient.Close() })
	}

	sinkNames := strings.Split(env.GetString("IMPORT_SINKS", "postgres"), ",")
	for _, sinkName := range sinkNames {
		switch strings.TrimSpace(sinkName) {
		case "postgres":
			dbWriteHost := env.MustGetString("DB_WRITE_HOST")
			dbWritePort := env.GetString("DB_WRITE_PORT", "5432")
			dbname := env.MustGetString("DB_NAME")
			dbUser := env.MustGetString("DB_USER")
			dbPassword := env.MustGetString("DB_PASSWORD")
			maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

			writePool, err := postgres.NewPostgresClient(dbWriteHost, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
			if err != nil {
				return nil, fmt.Errorf("postgres sink: %w", err)
			}
			deps.closers = append(deps.closers, writePool.Close)

			var cachedAuthorRepository *repositories.CachedAuthorRepository
			if redisClient != nil {
				cachedAuthorRepository = repositories.NewCachedAuthorRepository(nil, redisClient)
			}

			authorWriteRepository := repositories.NewAuthorWriteRepository(writePool, cachedAuthorRepository)
			deps.sinks = append(deps.sinks, importer.SinkFunc(authorWriteRepository.UpsertAuthors))

		case "elasticsearch":
			esHosts := env.MustGetString("ES_HOSTS")
			esIndex := env.GetString("ES_INDEX", "authors")

			esClient, err := elasticsearch.NewElasticClient(esHosts)
			if err != nil {
				return nil, fmt.Errorf("elasticsearch sink: %w", err)
			}

			authorIndexRepository := repositories.NewAuthorIndexRepository(esClient, esIndex)
			deps.sinks = append(deps.sinks, importer.SinkFunc(authorIndexRepository.UpsertAuthors))

		case "kafka":
			brokers := env.MustGetString("KAFKA_BROKERS")
			topic := env.MustGetString("KAFKA_AUTHOR_RECORDS_TOPIC")
			groupID := env.GetString("KAFKA_IMPORTER_GROUP_ID", "olimport-importer")
			kafkaBatchSize := env.GetInt("KAFKA_BATCH_SIZE", 5000)

			kafkaClient, err := kafka.NewKafkaClient(logger, brokers, groupID, kafkaBatchSize)
			if err != nil {
				return nil, fmt.Errorf("kafka sink: %w", err)
			}
			deps.closers = append(deps.closers, func() { kafkaClient.Close() })

			recordPublisher := events.NewRecordPublisher(logger, kafkaClient, topic)
			deps.sinks = append(deps.sinks, importer.SinkFunc(recordPublisher.PublishAuthors))

		case "":
			// Tolerate trailing commas

		default:
			return nil, fmt.Errorf("unknown sink %q in IMPORT_SINKS", sinkName)
		}
	}

	if len(deps.sinks) == 0 {
		return nil, fmt.Errorf("IMPORT_SINKS selected no sinks")
	}

	logger.Info("Import sinks configured", "sinks", sinkNames)
	return deps, nil
}
