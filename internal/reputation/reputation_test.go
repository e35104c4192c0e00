package reputation

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/db"
	"github.com/evcraddock/qa-forum/internal/question"
)

// recordingCalculator counts Calculate calls per question.
type recordingCalculator struct {
	mu    sync.Mutex
	calls []int64
	err   error
	done  chan struct{}
}

func newRecordingCalculator() *recordingCalculator {
	return &recordingCalculator{done: make(chan struct{}, 16)}
}

func (c *recordingCalculator) Calculate(_ context.Context, q *question.Question) error {
	c.mu.Lock()
	c.calls = append(c.calls, q.ID)
	c.mu.Unlock()
	c.done <- struct{}{}
	return c.err
}

func (c *recordingCalculator) Calls() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.calls...)
}

func TestPerformCallsCalculateOnce(t *testing.T) {
	calc := newRecordingCalculator()
	q := &question.Question{ID: 7}

	if err := Perform(context.Background(), calc, q); err != nil {
		t.Fatalf("perform: %v", err)
	}

	calls := calc.Calls()
	if len(calls) != 1 || calls[0] != 7 {
		t.Errorf("calls = %v, want [7]", calls)
	}
}

func TestPerformPropagatesError(t *testing.T) {
	calc := newRecordingCalculator()
	calc.err = errors.New("boom")

	err := Perform(context.Background(), calc, &question.Question{ID: 1})
	if !errors.Is(err, calc.err) {
		t.Fatalf("err = %v, want %v", err, calc.err)
	}
	if n := len(calc.Calls()); n != 1 {
		t.Errorf("calls = %d, want exactly 1 (no retry)", n)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers int64
		best    bool
		want    int64
	}{
		{"no answers", 0, false, 0},
		{"three answers", 3, false, 6},
		{"best answer chosen", 2, true, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.answers, tt.best); got != tt.want {
				t.Errorf("Score(%d, %v) = %d, want %d", tt.answers, tt.best, got, tt.want)
			}
		})
	}
}

func TestScoreCalculator(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	questions := question.NewRepository(d)
	answers := answer.NewRepository(d)

	q, err := questions.Create(ctx, "Scored?", "", "q@example.com")
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	for _, body := range []string{"one", "two", "three"} {
		if _, err := answers.CreateUnder(ctx, q.ID, "a@example.com", answer.Attributes{Body: body}); err != nil {
			t.Fatalf("create answer: %v", err)
		}
	}

	calc := NewScoreCalculator(answers, questions)
	if err := calc.Calculate(ctx, q); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	got, err := questions.GetByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if got.Reputation != 6 {
		t.Errorf("reputation = %d, want 6", got.Reputation)
	}
	if q.Reputation != 6 {
		t.Errorf("in-memory reputation = %d, want 6", q.Reputation)
	}
}

func TestChannelQueue(t *testing.T) {
	q := NewChannelQueue(1)
	ctx := context.Background()

	first := NewJob(1, ReasonManual)
	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, NewJob(2, ReasonManual)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("job id = %q, want %q", got.ID, first.ID)
	}

	q.Close()
	if err := q.Enqueue(ctx, first); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("enqueue after close err = %v, want ErrQueueClosed", err)
	}
	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("dequeue after close err = %v, want ErrQueueClosed", err)
	}
}

func TestChannelQueueDequeueCancelled(t *testing.T) {
	q := NewChannelQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestDispatchDoesNotRunJob(t *testing.T) {
	q := NewChannelQueue(4)
	d := NewDispatcher(q)

	job, err := d.Dispatch(context.Background(), 42, ReasonAnswerCreated)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.QuestionID != 42 || job.Reason != ReasonAnswerCreated {
		t.Errorf("job = %+v", job)
	}
	if q.Len() != 1 {
		t.Errorf("queue len = %d, want 1", q.Len())
	}
}

func TestWorkerRunsDispatchedJobOnce(t *testing.T) {
	d := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	questions := question.NewRepository(d)
	target, err := questions.Create(ctx, "Target", "", "q@example.com")
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	queue := NewChannelQueue(4)
	calc := newRecordingCalculator()
	jobs := NewJobLog(d)
	worker := NewWorker(queue, questions, calc, jobs)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	job, err := NewDispatcher(queue).Dispatch(ctx, target.ID, ReasonAnswerCreated)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	select {
	case <-calc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for calculation")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("worker run: %v", err)
	}

	calls := calc.Calls()
	if len(calls) != 1 || calls[0] != target.ID {
		t.Errorf("calls = %v, want [%d]", calls, target.ID)
	}

	records, err := jobs.ListByQuestionID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d job records, want 1", len(records))
	}
	if records[0].ID != job.ID || records[0].Status != StatusSucceeded {
		t.Errorf("record = %+v", records[0])
	}
}

// flakyQueue fails its first Dequeue, then serves jobs from a channel.
type flakyQueue struct {
	mu       sync.Mutex
	failures int
	dequeues int
	jobs     chan Job
}

func (q *flakyQueue) Enqueue(_ context.Context, job Job) error {
	q.jobs <- job
	return nil
}

func (q *flakyQueue) Dequeue(ctx context.Context) (Job, error) {
	q.mu.Lock()
	q.dequeues++
	fail := q.failures > 0
	if fail {
		q.failures--
	}
	q.mu.Unlock()

	if fail {
		return Job{}, errors.New("decoding job: invalid character")
	}
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func TestWorkerKeepsRunningAfterDequeueError(t *testing.T) {
	d := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	questions := question.NewRepository(d)
	target, err := questions.Create(ctx, "Target", "", "q@example.com")
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	queue := &flakyQueue{failures: 1, jobs: make(chan Job, 1)}
	calc := newRecordingCalculator()
	worker := NewWorker(queue, questions, calc, nil)
	worker.retryDelay = time.Millisecond

	if err := queue.Enqueue(ctx, NewJob(target.ID, ReasonAnswerCreated)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case <-calc.done:
	case err := <-done:
		t.Fatalf("worker stopped early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for calculation")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("worker run: %v", err)
	}

	if calls := calc.Calls(); len(calls) != 1 || calls[0] != target.ID {
		t.Errorf("calls = %v, want [%d]", calls, target.ID)
	}
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.dequeues < 2 {
		t.Errorf("dequeues = %d, want at least 2", queue.dequeues)
	}
}

func TestWorkerHandleOutcomes(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	questions := question.NewRepository(d)
	q, err := questions.Create(ctx, "Outcomes", "", "q@example.com")
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	failing := newRecordingCalculator()
	failing.err = errors.New("calculator down")

	tests := []struct {
		name       string
		questionID int64
		calc       *recordingCalculator
		wantStatus string
		wantCalls  int
	}{
		{"success", q.ID, newRecordingCalculator(), StatusSucceeded, 1},
		{"missing question is skipped", 9999, newRecordingCalculator(), StatusSkipped, 0},
		{"calculator error fails", q.ID, failing, StatusFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := NewJobLog(d)
			w := NewWorker(NewChannelQueue(1), questions, tt.calc, jobs)

			job := NewJob(tt.questionID, ReasonManual)
			if got := w.Handle(ctx, job); got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
			if n := len(tt.calc.Calls()); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}

			records, err := jobs.ListByQuestionID(ctx, tt.questionID)
			if err != nil {
				t.Fatalf("list jobs: %v", err)
			}
			found := false
			for _, rec := range records {
				if rec.ID == job.ID {
					found = true
					if rec.Status != tt.wantStatus {
						t.Errorf("recorded status = %q, want %q", rec.Status, tt.wantStatus)
					}
					if rec.FinishedAt == nil {
						t.Error("expected finished_at")
					}
				}
			}
			if !found {
				t.Error("job outcome was not recorded")
			}
		})
	}
}

func TestJobLogRecordTwiceCountsAttempts(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	jobs := NewJobLog(d)

	job := NewJob(5, ReasonManual)
	if err := jobs.Record(ctx, job, StatusFailed, errors.New("first")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := jobs.Record(ctx, job, StatusSucceeded, nil); err != nil {
		t.Fatalf("record again: %v", err)
	}

	records, err := jobs.ListByQuestionID(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", records[0].Attempts)
	}
	if records[0].Status != StatusSucceeded || records[0].LastError != "" {
		t.Errorf("record = %+v", records[0])
	}
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}
