package reputation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Job outcomes recorded in the job log.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// JobRecord is one row of the job log.
type JobRecord struct {
	ID         string     `json:"id"`
	QuestionID int64      `json:"question_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"last_error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// JobLog records job outcomes in SQLite.
type JobLog struct {
	db *sql.DB
}

// NewJobLog creates a job log.
func NewJobLog(db *sql.DB) *JobLog {
	return &JobLog{db: db}
}

// Record stores the outcome of one execution of job. A job seen again (for
// example after a Redis redelivery) has its attempt count incremented.
func (l *JobLog) Record(ctx context.Context, job Job, status string, jobErr error) error {
	var lastError string
	if jobErr != nil {
		lastError = jobErr.Error()
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO reputation_jobs (id, question_id, reason, status, attempts, last_error, enqueued_at, finished_at)
VALUES (?, ?, ?, ?, 1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	attempts = reputation_jobs.attempts + 1,
	last_error = excluded.last_error,
	finished_at = excluded.finished_at`,
		job.ID, job.QuestionID, job.Reason, status, lastError, job.EnqueuedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	return nil
}

// ListByQuestionID returns the logged jobs for a question, newest first.
func (l *JobLog) ListByQuestionID(ctx context.Context, questionID int64) (records []JobRecord, err error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT id, question_id, reason, status, attempts, last_error, enqueued_at, finished_at
FROM reputation_jobs WHERE question_id = ? ORDER BY enqueued_at DESC`, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rec JobRecord
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.QuestionID, &rec.Reason, &rec.Status,
			&rec.Attempts, &rec.LastError, &rec.EnqueuedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = &finished.Time
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return records, nil
}
