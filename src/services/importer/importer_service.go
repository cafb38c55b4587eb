package importer

import (
	"context"
	"log/slog"

	"olimport/src/domain/entities"
	"olimport/src/repositories"
)

const (
	// DefaultBatchSize matches the dump cadence the backends are tuned
	// for: COPY batches on postgres, bulk requests on elasticsearch.
	DefaultBatchSize = 1000
	DefaultWorkers   = 4
)

// Sink is one destination for normalized author batches. SubmitBatch
// returns only after the destination acknowledged the whole batch.
type Sink interface {
	SubmitBatch(ctx context.Context, batch []entities.Author) error
}

// SinkFunc adapts a batch-writing function to the Sink interface.
type SinkFunc func(ctx context.Context, batch []entities.Author) error

func (f SinkFunc) SubmitBatch(ctx context.Context, batch []entities.Author) error {
	return f(ctx, batch)
}

// Config holds the knobs of a single import run.
type Config struct {
	File          string
	BatchSize     int
	Workers       int
	Resume        bool
	SkipMalformed bool
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// ImporterService drives dump files through parse, normalize and batch
// submission. The checkpoint repository is optional; without it runs
// always start from the top of the file.
type ImporterService struct {
	logger               *slog.Logger
	sinks                []Sink
	checkpointRepository *repositories.CheckpointRepository
}

func NewImporterService(
	logger *slog.Logger,
	sinks []Sink,
	checkpointRepository *repositories.CheckpointRepository,
) *ImporterService {
	return &ImporterService{
		logger:               logger,
		sinks:                sinks,
		checkpointRepository: checkpointRepository,
	}
}
