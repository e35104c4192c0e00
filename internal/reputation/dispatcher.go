package reputation

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher turns answer events into queued jobs. It never waits for a job
// to run.
type Dispatcher struct {
	queue Queue
}

// NewDispatcher creates a dispatcher on queue.
func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Dispatch enqueues a recalculation for questionID.
func (d *Dispatcher) Dispatch(ctx context.Context, questionID int64, reason string) (Job, error) {
	job := NewJob(questionID, reason)
	if err := d.queue.Enqueue(ctx, job); err != nil {
		return Job{}, fmt.Errorf("enqueueing reputation job for question %d: %w", questionID, err)
	}

	slog.Debug("reputation job enqueued",
		"job_id", job.ID,
		"question_id", questionID,
		"reason", reason,
	)
	return job, nil
}
