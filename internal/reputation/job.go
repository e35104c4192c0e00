package reputation

import (
	"time"

	"github.com/google/uuid"
)

// Reasons a recalculation was requested.
const (
	ReasonAnswerCreated = "answer_created"
	ReasonAnswerDeleted = "answer_deleted"
	ReasonBestAnswer    = "best_answer"
	ReasonManual        = "manual"
)

// Job asks for the reputation of one question to be recalculated.
type Job struct {
	ID         string    `json:"id"`
	QuestionID int64     `json:"question_id"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a job with a fresh ID.
func NewJob(questionID int64, reason string) Job {
	return Job{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		Reason:     reason,
		EnqueuedAt: time.Now().UTC(),
	}
}
