// Package queue holds compile jobs between submission and a worker.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job is the payload flowing through the queue.
type Job = model.CompileJob

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a job without blocking. It fails with ErrFull when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the channel of queued jobs. It is closed once the
	// queue is closed and drained. Consumers watch their own ctx.
	Dequeue(ctx context.Context) <-chan Job

	// Received is called by a consumer for every job it takes.
	Received(j Job)

	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs. Jobs already queued are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", j.ID, err)
	}
	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return fmt.Errorf("enqueue %s: %w", j.ID, ErrFull)
	}
}

// Dequeue implements Queue.Dequeue. Consumers share one channel, so a job
// is either still queued or owned by exactly one consumer.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Received records that a consumer took j off the queue.
func (q *InMemoryQueue) Received(j Job) { //nolint:gocritic // hugeParam: jobs travel by value
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(len(q.jobs))
	if !j.SubmittedAt.IsZero() {
		metrics.RecordQueueWait(time.Since(j.SubmittedAt))
	}
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	metrics.UpdateQueueSize(n)
	return n
}

// Close implements Queue.Close. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
