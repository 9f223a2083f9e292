package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PoolConfig holds configuration options for the pool.
type PoolConfig struct {
	// WorkerCount determines how many concurrent workers to start.
	// If zero or negative, defaults to 1.
	WorkerCount int
}

// Pool manages worker goroutines that process jobs from a queue until the
// queue is closed and drained, or the parent context is cancelled.
type Pool struct {
	queue       QueueReader
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	// recvMu makes "take next job" and "announce start" one step, so jobs
	// start in queue order even with several workers.
	recvMu  sync.Mutex
	started atomic.Int64

	onStart      func(job Job, seq int)
	errorHandler func(job Job, err error)
}

// NewPool creates a pool reading from queue. Jobs run under a context
// derived from parent; cancelling parent stops the pool from taking
// further jobs.
func NewPool(parent context.Context, queue QueueReader, config PoolConfig, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		queue:       queue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetStartHandler registers fn to run as each job is taken off the queue,
// with its zero-based start sequence. Calls are serialized.
// Must be called before Start.
func (p *Pool) SetStartHandler(fn func(job Job, seq int)) {
	p.onStart = fn
}

// SetErrorHandler registers fn to receive job failures, including recovered
// panics wrapped in ErrJobPanicked. If nil, errors are only logged.
// Must be called before Start.
func (p *Pool) SetErrorHandler(fn func(job Job, err error)) {
	p.errorHandler = fn
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
	p.cancel()
}

// Started returns the number of jobs taken off the queue so far.
func (p *Pool) Started() int {
	return int(p.started.Load())
}

func (p *Pool) next() (Job, bool) {
	p.recvMu.Lock()
	defer p.recvMu.Unlock()

	// A cancelled pool stops taking jobs even if more are queued.
	if p.ctx.Err() != nil {
		return nil, false
	}

	select {
	case <-p.ctx.Done():
		return nil, false
	case job, ok := <-p.queue.Channel():
		if !ok {
			return nil, false
		}
		seq := int(p.started.Add(1) - 1)
		if p.onStart != nil {
			p.onStart(job, seq)
		}
		return job, true
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", slog.Int("worker_id", id))
	defer p.logger.Debug("stopping worker", slog.Int("worker_id", id))

	for {
		job, ok := p.next()
		if !ok {
			return
		}
		if err := p.run(job); err != nil {
			if p.errorHandler != nil {
				p.errorHandler(job, err)
			} else {
				p.logger.Error("job execution failed",
					slog.String("job_id", job.ID()),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (p *Pool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				slog.String("job_id", job.ID()),
				slog.Any("panic", r))
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.Execute(p.ctx)
}
