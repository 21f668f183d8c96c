package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/metrics"
)

// Runner executes the full pipeline for one job.
type Runner interface {
	Run(ctx context.Context, job *domain.Job)
}

// WorkerPool owns a fixed-size set of goroutines that drain a bounded job
// queue. It replaces fire-and-forget task spawning: concurrency is capped
// at the pool size and the queue depth is capped at its buffer, so load
// cannot grow the process without bound.
type WorkerPool struct {
	size   int
	jobs   chan *domain.Job
	runner Runner
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool of size workers behind a queue holding up to
// queueCapacity waiting jobs.
func NewWorkerPool(size, queueCapacity int, runner Runner, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:   size,
		jobs:   make(chan *domain.Job, queueCapacity),
		runner: runner,
		logger: logger,
	}
}

// Dispatch hands a job to the pool without blocking. Returns
// domain.ErrQueueFull when the queue is saturated.
func (p *WorkerPool) Dispatch(job *domain.Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("starting worker pool",
		zap.Int("pool_size", p.size),
		zap.Int("queue_capacity", cap(p.jobs)),
	)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker shutting down", zap.Int("worker_id", id))
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			p.logger.Info("worker picked up job",
				zap.Int("worker_id", id),
				zap.String("job_id", job.ID),
			)

			metrics.PipelinesActive.Inc()
			start := time.Now()

			// Runner recovers its own panics and converts every failure
			// into a FAILED transition for its job.
			p.runner.Run(ctx, job)

			metrics.PipelinesActive.Dec()
			metrics.PipelineDuration.Observe(time.Since(start).Seconds())
		}
	}
}
