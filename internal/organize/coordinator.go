package organize

import (
	"context"
	"log/slog"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
	"shuttersort/internal/stats"
)

// Journal records run progress for later inspection. Implementations must
// tolerate concurrent runs against the same backing store.
type Journal interface {
	BeginRun(ctx context.Context, runID, source, target string) error
	RecordResult(ctx context.Context, runID string, result Result) error
	FinishRun(ctx context.Context, runID string, snapshot stats.Snapshot) error
}

// NoopJournal discards all records.
type NoopJournal struct{}

func (NoopJournal) BeginRun(context.Context, string, string, string) error  { return nil }
func (NoopJournal) RecordResult(context.Context, string, Result) error      { return nil }
func (NoopJournal) FinishRun(context.Context, string, stats.Snapshot) error { return nil }

// Coordinator feeds batches of tasks to the pool and accounts for every
// result. At most one batch is outstanding at a time; a batch that overruns
// its completion timeout is logged and its unfinished tasks are carried
// forward so the final drain still accounts for them.
type Coordinator struct {
	cfg       *config.Config
	pool      *Pool
	collector *stats.Collector
	journal   Journal
	logger    *slog.Logger
	token     *Token
	runID     string
}

func NewCoordinator(cfg *config.Config, pool *Pool, collector *stats.Collector, journal Journal, logger *slog.Logger, token *Token, runID string) *Coordinator {
	if journal == nil {
		journal = NoopJournal{}
	}
	return &Coordinator{
		cfg:       cfg,
		pool:      pool,
		collector: collector,
		journal:   journal,
		logger:    logging.NewComponentLogger(logger, "coordinator"),
		token:     token,
		runID:     runID,
	}
}

// Run pulls tasks from the builder until it is exhausted or the run is
// cancelled, then drains the pool completely.
func (c *Coordinator) Run(ctx context.Context, builder *TaskBuilder) {
	outstanding := 0
	batchNum := 0
	for {
		if c.token.Cancelled() || ctx.Err() != nil {
			c.logger.Info("cancellation requested; no new batches",
				logging.Int("remaining", builder.Remaining()),
			)
			break
		}

		batch := c.nextBatch(ctx, builder)
		if len(batch) == 0 {
			break
		}
		batchNum++
		c.collector.Increment(stats.Batches)
		c.logger.Debug("dispatching batch",
			logging.Int(logging.FieldBatch, batchNum),
			logging.Int("size", len(batch)),
		)

		submitted := 0
		for _, task := range batch {
			if !c.pool.Submit(task) {
				c.logger.Warn("batch cut short by cancellation",
					logging.Int(logging.FieldBatch, batchNum),
					logging.Int("undispatched", len(batch)-submitted),
				)
				break
			}
			submitted++
		}
		outstanding = c.awaitResults(ctx, submitted+outstanding, batchNum)
	}

	c.pool.CloseTasks()
	for result := range c.pool.Results() {
		c.account(ctx, result)
	}
}

func (c *Coordinator) nextBatch(ctx context.Context, builder *TaskBuilder) []FileTask {
	batch := make([]FileTask, 0, c.cfg.Performance.BatchSize)
	for len(batch) < c.cfg.Performance.BatchSize {
		task, ok := builder.Next(ctx)
		if !ok {
			break
		}
		batch = append(batch, task)
	}
	return batch
}

// awaitResults consumes results until the expected count arrives or the batch
// timeout fires. It returns the number of results still outstanding, which the
// caller folds into the next wait.
func (c *Coordinator) awaitResults(ctx context.Context, expected, batchNum int) int {
	if expected <= 0 {
		return 0
	}
	timeout := time.NewTimer(c.cfg.BatchTimeoutDuration())
	defer timeout.Stop()

	received := 0
	for received < expected {
		select {
		case result, ok := <-c.pool.Results():
			if !ok {
				return 0
			}
			c.account(ctx, result)
			received++
		case <-timeout.C:
			c.logger.Warn("batch completion timed out",
				logging.Int(logging.FieldBatch, batchNum),
				logging.Int("outstanding", expected-received),
			)
			return expected - received
		}
	}
	return 0
}

// account applies one result to the counters and the journal. Every result is
// counted exactly once: processed always, then moved, copied, or errors.
func (c *Coordinator) account(ctx context.Context, result Result) {
	if err := c.journal.RecordResult(ctx, c.runID, result); err != nil {
		c.logger.Warn("journal write failed",
			logging.String("source", result.Task.Source),
			logging.Error(err),
		)
	}

	c.collector.Increment(stats.Processed)
	if !result.Success {
		c.collector.Increment(stats.Errors)
		return
	}

	c.collector.Add(stats.BytesProcessed, result.Bytes)
	switch result.Task.Operation {
	case OpCopy:
		c.collector.Increment(stats.Copied)
	default:
		c.collector.Increment(stats.Moved)
	}
	c.logger.Debug("file organized",
		logging.String("source", result.Task.Source),
		logging.String("target", result.Task.Target),
		logging.String("operation", string(result.Task.Operation)),
		logging.Duration("took", result.Duration),
	)
}
