// Package question provides the question domain model and data access.
package question

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a question does not exist.
	ErrNotFound = errors.New("question not found")
	// ErrTitleRequired is returned when a question has a blank title.
	ErrTitleRequired = errors.New("question title is required")
)

// Question is a top-level forum entry that owns zero or more answers.
type Question struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Author       string    `json:"author"`
	Reputation   int64     `json:"reputation"`
	BestAnswerID *int64    `json:"best_answer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasBestAnswer reports whether an answer has been marked best.
func (q *Question) HasBestAnswer() bool {
	return q.BestAnswerID != nil
}

// scanQuestion scans a question from a database row.
func scanQuestion(row interface{ Scan(...interface{}) error }) (*Question, error) {
	var q Question
	var best sql.NullInt64

	err := row.Scan(
		&q.ID, &q.Title, &q.Body, &q.Author, &q.Reputation,
		&best, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if best.Valid {
		q.BestAnswerID = &best.Int64
	}
	return &q, nil
}
