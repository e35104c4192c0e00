package reputation

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when an in-memory queue has no free slot.
	ErrQueueFull = errors.New("reputation queue is full")
	// ErrQueueClosed is returned after a queue has been closed.
	ErrQueueClosed = errors.New("reputation queue is closed")
)

// Queue carries jobs from dispatchers to workers.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
}

// ChannelQueue is an in-process queue backed by a buffered channel. Jobs are
// lost if the process exits before a worker picks them up.
type ChannelQueue struct {
	jobs chan Job

	mu     sync.RWMutex
	closed bool
}

// NewChannelQueue creates a queue holding up to size pending jobs.
func NewChannelQueue(size int) *ChannelQueue {
	if size < 1 {
		size = 1
	}
	return &ChannelQueue{jobs: make(chan Job, size)}
}

// Enqueue adds a job without blocking. A full queue returns ErrQueueFull.
func (q *ChannelQueue) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue implements Queue.
func (q *ChannelQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case job, ok := <-q.jobs:
		if !ok {
			return Job{}, ErrQueueClosed
		}
		return job, nil
	}
}

// Len returns the number of pending jobs.
func (q *ChannelQueue) Len() int {
	return len(q.jobs)
}

// Close stops accepting jobs. Pending jobs can still be dequeued.
func (q *ChannelQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
