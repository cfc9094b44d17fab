// Package worker runs queued compile jobs and publishes their results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/scoring"
	"github.com/okian/tribescore/pkg/logger"
	"github.com/okian/tribescore/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.CompileJob

// Compiler turns a league's input into scores.
type Compiler interface {
	Compile(in model.Input) (model.Result, error)
}

// Publisher stores a compiled result.
type Publisher interface {
	Put(ctx context.Context, leagueID string, res model.Result) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
	Received(j Job)
}

// DoneFunc observes a finished job. err is nil on success.
type DoneFunc func(ctx context.Context, j Job, err error)

// Worker processes jobs until stopped.
type Worker interface {
	// Run blocks until ctx is done, Shutdown is called, or the queue is
	// closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	compiler  Compiler
	publisher Publisher
	name      string
	onDone    DoneFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, c Compiler, p Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		compiler:  c,
		publisher: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run implements Worker.Run.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for !w.stopping(ctx) {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.queue.Received(j)
			err := w.process(ctx, j)
			if err != nil {
				w.logger.Error(ctx, "compile job failed",
					logger.String("job_id", j.ID),
					logger.String("league_id", j.Input.LeagueID),
					logger.Error(err),
				)
			}
			if w.onDone != nil {
				w.onDone(ctx, j, err)
			}
		}
	}
}

// stopping reports a pending stop so a busy worker does not take another job.
func (w *InMemoryWorker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.shutdown:
		return true
	default:
		return false
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// Shutdown implements Worker.Shutdown.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	metrics.AddWorkerActive(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(time.Since(start))
	}()

	compileStart := time.Now()
	res, err := w.compiler.Compile(j.Input)
	if err != nil {
		kind := ErrorKind(err)
		metrics.RecordCompileError(kind)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", kind)
		return fmt.Errorf("compile league %q: %w", j.Input.LeagueID, err)
	}
	metrics.RecordCompilation(time.Since(compileStart), entityCounts(res.Scores))

	if err := w.publisher.Put(ctx, j.Input.LeagueID, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", metrics.KindStore)
		return fmt.Errorf("publish league %q: %w", j.Input.LeagueID, err)
	}
	w.logger.Debug(ctx, "compiled league",
		logger.String("job_id", j.ID),
		logger.String("league_id", j.Input.LeagueID),
		logger.Int("episodes", res.Scores.MaxEpisode()+1),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// ErrorKind maps a compile error to its metrics label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrNegativeEpisode),
		errors.Is(err, scoring.ErrUnknownEvent),
		errors.Is(err, scoring.ErrUnknownReference),
		errors.Is(err, scoring.ErrNegativeBet),
		errors.Is(err, scoring.ErrMissingMaker):
		return metrics.KindValidation
	case errors.Is(err, scoring.ErrMissingRule),
		errors.Is(err, scoring.ErrRuleKind):
		return metrics.KindRule
	default:
		return metrics.KindInternal
	}
}

func entityCounts(t model.ScoreTable) map[string]int {
	out := make(map[string]int, len(t))
	for _, b := range model.Buckets() {
		out[string(b)] = len(t[b])
	}
	return out
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	onDone  DoneFunc
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. workerCount < 1 uses one
// worker per CPU.
func NewPool(workerCount int, q Queue, c Compiler, p Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		cancel:  func() {},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, c, p, wopts...)
	}
	// Workers share their options, so any one of them holds the hook.
	pool.onDone = pool.workers[0].onDone
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers. They stop when ctx is done or the pool is shut
// down.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets workers drain it. If ctx or the pool
// timeout expires first, it stops the workers without waiting for jobs in
// flight and reports every job still queued as failed with ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	defer p.cancel()

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			busy, dropped := p.force(ctx)
			p.logger.Warn(ctx, "forced pool shutdown",
				logger.Int("busy_workers", busy),
				logger.Int("dropped_jobs", dropped),
			)
			return fmt.Errorf("%d workers did not drain: %w", busy, shutdownCtx.Err())
		}
	}
	return nil
}

// force stops every worker and fails the jobs left in the queue. Jobs
// already being compiled still report through the done hook when they end.
func (p *Pool) force(ctx context.Context) (busy, dropped int) {
	for _, w := range p.workers {
		w.stop()
	}
	p.cancel()
	for _, w := range p.workers {
		select {
		case <-w.done:
		default:
			busy++
		}
	}

	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return busy, dropped
			}
			p.queue.Received(j)
			dropped++
			metrics.RecordErrorByComponent("worker", "stopped")
			if p.onDone != nil {
				p.onDone(ctx, j, fmt.Errorf("job %s: %w", j.ID, ErrStopped))
			}
		default:
			return busy, dropped
		}
	}
}
