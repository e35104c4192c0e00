package reputation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evcraddock/qa-forum/internal/question"
)

// QuestionFinder loads questions by ID.
type QuestionFinder interface {
	GetByID(ctx context.Context, id int64) (*question.Question, error)
}

// Recorder stores job outcomes. JobLog implements it.
type Recorder interface {
	Record(ctx context.Context, job Job, status string, jobErr error) error
}

// dequeueRetryDelay is how long Run waits after a failed dequeue.
const dequeueRetryDelay = time.Second

// Worker consumes jobs from a queue and performs each one.
type Worker struct {
	queue      Queue
	questions  QuestionFinder
	calc       Calculator
	recorder   Recorder
	retryDelay time.Duration
}

// NewWorker creates a worker. recorder may be nil.
func NewWorker(queue Queue, questions QuestionFinder, calc Calculator, recorder Recorder) *Worker {
	return &Worker{
		queue:      queue,
		questions:  questions,
		calc:       calc,
		recorder:   recorder,
		retryDelay: dequeueRetryDelay,
	}
}

// Run processes jobs until ctx is cancelled or the queue is closed, then
// returns nil. Job failures and queue errors are logged and do not stop the
// loop.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("reputation worker started")
	defer slog.Info("reputation worker stopped")

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return nil
			}
			slog.Error("dequeueing reputation job", "error", err, "retry_in", w.retryDelay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.retryDelay):
			}
			continue
		}

		w.Handle(ctx, job)
	}
}

// Handle performs a single job and records its outcome. It returns the
// recorded status.
func (w *Worker) Handle(ctx context.Context, job Job) string {
	log := slog.With("job_id", job.ID, "question_id", job.QuestionID, "reason", job.Reason)

	status, jobErr := w.perform(ctx, job)
	switch status {
	case StatusSucceeded:
		log.Info("reputation recalculated")
	case StatusSkipped:
		log.Warn("reputation job skipped", "error", jobErr)
	default:
		log.Error("reputation job failed", "error", jobErr)
	}

	if w.recorder != nil {
		// Outcomes are recorded even if shutdown began mid-job.
		if err := w.recorder.Record(context.WithoutCancel(ctx), job, status, jobErr); err != nil {
			log.Error("recording reputation job", "error", err)
		}
	}
	return status
}

func (w *Worker) perform(ctx context.Context, job Job) (string, error) {
	q, err := w.questions.GetByID(ctx, job.QuestionID)
	if errors.Is(err, question.ErrNotFound) {
		return StatusSkipped, err
	}
	if err != nil {
		return StatusFailed, err
	}

	if err := Perform(ctx, w.calc, q); err != nil {
		return StatusFailed, err
	}
	return StatusSucceeded, nil
}
