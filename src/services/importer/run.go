package importer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"olimport/src/domain"
	"olimport/src/domain/entities"
	"olimport/src/infra/dump"

	"github.com/google/uuid"
)

type authorBatch struct {
	seq     int64
	records []entities.Author
}

type runStats struct {
	lines     atomic.Int64
	malformed atomic.Int64
	dropped   atomic.Int64
	resumed   atomic.Int64
	submitted atomic.Int64
	batches   atomic.Int64
}

// importRun carries the moving parts of a single Run: one producer
// goroutine reads, parses and slices the file into batches, a pool of
// workers pushes the batches to every sink.
type importRun struct {
	service    *ImporterService
	cfg        Config
	runID      string
	resumeFrom int64

	stats   runStats
	tracker *progressTracker

	failOnce sync.Once
	runErr   error
	cancel   context.CancelFunc

	checkpointMu   sync.Mutex
	lastCheckpoint int64
}

// Run imports one dump file. The first failing batch, unreadable line in
// strict mode, or read error stops the run; the returned report counts
// what happened up to that point.
func (s *ImporterService) Run(ctx context.Context, cfg Config) (*domain.ImportReport, error) {
	cfg = cfg.withDefaults()
	if cfg.File == "" {
		return nil, fmt.Errorf("Run: dump file path is required")
	}
	if len(s.sinks) == 0 {
		return nil, fmt.Errorf("Run: at least one sink is required")
	}

	runID := uuid.New().String()
	startedAt := time.Now()

	resumeFrom := s.loadResumePoint(ctx, cfg)

	reader, err := dump.Open(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	defer reader.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &importRun{
		service:        s,
		cfg:            cfg,
		runID:          runID,
		resumeFrom:     resumeFrom,
		tracker:        newProgressTracker(resumeFrom),
		cancel:         cancel,
		lastCheckpoint: resumeFrom,
	}

	s.logger.Info("import run starting",
		"run_id", runID,
		"file", cfg.File,
		"batch_size", cfg.BatchSize,
		"workers", cfg.Workers,
		"resume_from", resumeFrom,
	)

	batches := make(chan authorBatch, cfg.Workers*2)

	var workers sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			run.consumeBatches(runCtx, batches)
		}()
	}

	progressDone := make(chan struct{})
	go run.logProgress(progressDone)

	run.produceBatches(runCtx, reader, batches)
	close(batches)
	workers.Wait()
	close(progressDone)

	report := &domain.ImportReport{
		RunID:     runID,
		File:      cfg.File,
		Lines:     run.stats.lines.Load(),
		Malformed: run.stats.malformed.Load(),
		Dropped:   run.stats.dropped.Load(),
		Resumed:   run.stats.resumed.Load(),
		Submitted: run.stats.submitted.Load(),
		Batches:   run.stats.batches.Load(),
		Elapsed:   time.Since(startedAt),
	}

	if run.runErr != nil {
		s.logger.Error("import run failed",
			"run_id", runID,
			"lines", report.Lines,
			"submitted", report.Submitted,
			"error", run.runErr,
		)
		return report, run.runErr
	}

	s.logger.Info("import run finished",
		"run_id", runID,
		"lines", report.Lines,
		"malformed", report.Malformed,
		"dropped", report.Dropped,
		"resumed", report.Resumed,
		"submitted", report.Submitted,
		"batches", report.Batches,
		"elapsed", report.Elapsed.String(),
	)
	return report, nil
}

func (s *ImporterService) loadResumePoint(ctx context.Context, cfg Config) int64 {
	if !cfg.Resume {
		return 0
	}
	if s.checkpointRepository == nil {
		s.logger.Warn("resume requested but no checkpoint store is configured")
		return 0
	}

	checkpoint, err := s.checkpointRepository.Load(ctx, cfg.File)
	if err != nil {
		s.logger.Warn("failed to load checkpoint, starting from the top",
			"file", cfg.File,
			"error", err,
		)
		return 0
	}
	if checkpoint == nil {
		return 0
	}

	s.logger.Info("resuming from checkpoint",
		"file", cfg.File,
		"records", checkpoint.Records,
		"saved_at", checkpoint.SavedAt,
	)
	return checkpoint.Records
}

func (s *ImporterService) submit(ctx context.Context, records []entities.Author) error {
	for i, sink := range s.sinks {
		if err := sink.SubmitBatch(ctx, records); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

func (r *importRun) produceBatches(ctx context.Context, reader *dump.Reader, batches chan<- authorBatch) {
	var (
		current = make([]entities.Author, 0, r.cfg.BatchSize)
		seq     int64
		ordinal int64
	)

	for reader.Scan() {
		if ctx.Err() != nil {
			return
		}
		r.stats.lines.Add(1)

		author, ok := r.normalizeLine(reader.Text(), reader.LineNo())
		if !ok {
			continue
		}

		if !author.Identified() {
			r.stats.dropped.Add(1)
			continue
		}

		// Ordinal counts usable records from the top of the file, the
		// same way checkpoints do.
		ordinal++
		if ordinal <= r.resumeFrom {
			r.stats.resumed.Add(1)
			continue
		}

		current = append(current, author)
		if len(current) == r.cfg.BatchSize {
			if !r.sendBatch(ctx, batches, authorBatch{seq: seq, records: current}) {
				return
			}
			seq++
			current = make([]entities.Author, 0, r.cfg.BatchSize)
		}
	}

	if err := reader.Err(); err != nil {
		r.fail(err)
		return
	}

	if len(current) > 0 {
		r.sendBatch(ctx, batches, authorBatch{seq: seq, records: current})
	}
}

func (r *importRun) normalizeLine(line string, lineNo int64) (entities.Author, bool) {
	record, err := dump.ParseLine(line)
	if err != nil {
		return r.handleMalformed(lineNo, err)
	}

	author, err := dump.Normalize(record)
	if err != nil {
		return r.handleMalformed(lineNo, err)
	}

	return author, true
}

func (r *importRun) handleMalformed(lineNo int64, err error) (entities.Author, bool) {
	if r.cfg.SkipMalformed {
		r.stats.malformed.Add(1)
		r.service.logger.Warn("skipping malformed line",
			"file", r.cfg.File,
			"line", lineNo,
			"error", err,
		)
		return entities.Author{}, false
	}

	r.fail(fmt.Errorf("line %d: %w", lineNo, err))
	return entities.Author{}, false
}

func (r *importRun) sendBatch(ctx context.Context, batches chan<- authorBatch, batch authorBatch) bool {
	select {
	case batches <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *importRun) consumeBatches(ctx context.Context, batches <-chan authorBatch) {
	for batch := range batches {
		// Keep draining after a failure so the producer never blocks.
		if ctx.Err() != nil {
			continue
		}

		if err := r.service.submit(ctx, batch.records); err != nil {
			r.fail(fmt.Errorf("batch %d: %w", batch.seq, err))
			continue
		}

		r.stats.submitted.Add(int64(len(batch.records)))
		r.stats.batches.Add(1)

		acked := r.tracker.MarkDone(batch.seq, len(batch.records))
		r.saveCheckpoint(ctx, acked)
	}
}

func (r *importRun) saveCheckpoint(ctx context.Context, acked int64) {
	if r.service.checkpointRepository == nil {
		return
	}

	r.checkpointMu.Lock()
	defer r.checkpointMu.Unlock()

	// Workers race each other here; never write an older total over a
	// newer one.
	if acked <= r.lastCheckpoint {
		return
	}

	checkpoint := domain.Checkpoint{
		File:    r.cfg.File,
		Records: acked,
		RunID:   r.runID,
		SavedAt: time.Now().UTC(),
	}
	if err := r.service.checkpointRepository.Save(ctx, checkpoint); err != nil {
		r.service.logger.Warn("failed to save checkpoint",
			"file", r.cfg.File,
			"records", acked,
			"error", err,
		)
		return
	}
	r.lastCheckpoint = acked
}

func (r *importRun) fail(err error) {
	r.failOnce.Do(func() {
		r.runErr = err
		r.cancel()
	})
}

func (r *importRun) logProgress(done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.service.logger.Info("import progress",
				"run_id", r.runID,
				"lines", r.stats.lines.Load(),
				"submitted", r.stats.submitted.Load(),
				"batches", r.stats.batches.Load(),
				"acked", r.tracker.Acked(),
			)
		case <-done:
			return
		}
	}
}
