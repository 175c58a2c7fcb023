// Package worker defines worker contracts for asynchronous profile and
// workload refresh jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/pkg/logger"
	"github.com/okian/roster/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Task abstracts what workers read off the queue.
type Task = model.RefreshTask

// Refresher rebuilds one employee's materialized snapshots.
type Refresher interface {
	RefreshProfile(ctx context.Context, employeeID uuid.UUID) error
	RefreshWorkload(ctx context.Context, employeeID uuid.UUID) error
}

// Releaser frees a task's in-flight dedupe key once the task finishes.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Worker processes refresh tasks using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RefreshWorker implements Worker for processing refresh tasks.
type RefreshWorker struct {
	queue     Queue
	refresher Refresher
	releaser  Releaser
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewRefreshWorker creates a new worker with configuration options.
func NewRefreshWorker(queue Queue, refresher Refresher, releaser Releaser, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:     queue,
		refresher: refresher,
		releaser:  releaser,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	taskChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-taskChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			if err := w.processTask(ctx, task); err != nil {
				w.logger.Error(ctx, "refresh task failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTask handles a single refresh task. The dedupe key is released
// whether the refresh succeeded or not, so failed tasks can be resubmitted.
func (w *RefreshWorker) processTask(ctx context.Context, task Task) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if w.releaser != nil {
			w.releaser.Unrecord(ctx, task.Key())
		}
	}()

	var err error
	switch task.Kind {
	case model.RefreshProfile:
		err = w.refresher.RefreshProfile(ctx, task.EmployeeID)
	case model.RefreshWorkload:
		err = w.refresher.RefreshWorkload(ctx, task.EmployeeID)
	default:
		err = fmt.Errorf("unknown refresh kind %q", task.Kind)
	}

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordRefreshError(string(task.Kind))
		w.logger.Error(ctx, "refresh failed",
			logger.String("employeeID", task.EmployeeID.String()),
			logger.String("kind", string(task.Kind)),
			logger.Error(err),
		)
		return fmt.Errorf("refresh %s for employee %s: %w", task.Kind, task.EmployeeID, err)
	}

	metrics.RecordRefreshCompleted(string(task.Kind))
	metrics.RecordRefreshDuration(float64(time.Since(start).Milliseconds()))
	return nil
}

// Pool manages multiple refresh workers.
type Pool struct {
	workers []*RefreshWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, refresher Refresher, releaser Releaser) *Pool {
	if workerCount < 1 {
		workerCount = min(defaultWorkerCount, runtime.NumCPU())
	}

	pool := &Pool{
		workers:  make([]*RefreshWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewRefreshWorker(
			queue,
			refresher,
			releaser,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new tasks
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
