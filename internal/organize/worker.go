package organize

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
	"shuttersort/internal/services"
)

// Pool runs a fixed set of worker goroutines that pull tasks from a bounded
// channel and emit exactly one Result per task. The task channel's capacity is
// one batch, which is the pipeline's entire backpressure bound.
type Pool struct {
	cfg      *config.Config
	executor *Executor
	logger   *slog.Logger
	token    *Token

	tasks   chan FileTask
	results chan Result
	wg      sync.WaitGroup
}

func NewPool(cfg *config.Config, executor *Executor, logger *slog.Logger, token *Token) *Pool {
	return &Pool{
		cfg:      cfg,
		executor: executor,
		logger:   logging.NewComponentLogger(logger, "pool"),
		token:    token,
		tasks:    make(chan FileTask, cfg.Performance.BatchSize),
		results:  make(chan Result, cfg.Performance.BatchSize),
	}
}

// Start launches the workers. Results closes once every worker has exited.
func (p *Pool) Start(ctx context.Context) {
	workers := p.cfg.Performance.MaxWorkers
	for id := 1; id <= workers; id++ {
		p.wg.Add(1)
		go p.run(ctx, id)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Submit enqueues one task, blocking while a full batch is outstanding. It
// reports false when the run is cancelled before the task could be queued.
// A task that wins the race against cancellation still executes: workers keep
// consuming the channel until CloseTasks.
func (p *Pool) Submit(task FileTask) bool {
	select {
	case p.tasks <- task:
		return true
	case <-p.token.Done():
		return false
	}
}

// CloseTasks signals workers that no more tasks are coming.
func (p *Pool) CloseTasks() {
	close(p.tasks)
}

// Results yields one entry per submitted task, in completion order.
func (p *Pool) Results() <-chan Result {
	return p.results
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	ctx = services.WithWorker(ctx, strconv.Itoa(id))
	logger := p.logger.With(logging.Int(logging.FieldWorker, id))
	logger.Debug("worker started")
	defer logger.Debug("worker stopped")

	poll := p.cfg.QueuePollDuration()
	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(poll)

		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.results <- p.executor.Execute(ctx, task)
		case <-timer.C:
			if p.token.Cancelled() || ctx.Err() != nil {
				p.drain(ctx, logger)
				return
			}
		}
	}
}

// drain finishes tasks that were already dispatched when the run was
// cancelled, so every submitted task still produces a result. It runs until
// the task channel closes; returning any earlier would drop a task that was
// enqueued concurrently with the cancellation.
func (p *Pool) drain(ctx context.Context, logger *slog.Logger) {
	drained := 0
	for task := range p.tasks {
		p.results <- p.executor.Execute(ctx, task)
		drained++
	}
	if drained > 0 {
		logger.Debug("drained queued tasks after cancellation", logging.Int("count", drained))
	}
}
