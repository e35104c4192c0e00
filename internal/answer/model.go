// Package answer provides the answer domain model and data access.
package answer

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an answer does not exist.
	ErrNotFound = errors.New("answer not found")
	// ErrBlankBody is returned when an answer body is empty.
	ErrBlankBody = errors.New("body can't be blank")
	// ErrQuestionRequired is returned when an answer has no owning question.
	ErrQuestionRequired = errors.New("question must exist")
)

// Answer is a response attached to exactly one question and authored by
// one actor. QuestionID and Author never change after creation.
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Attributes are the answer fields a request may assign.
type Attributes struct {
	Body string `json:"body"`
}

// IsNew reports whether the answer has not been persisted.
func (a *Answer) IsNew() bool {
	return a.ID == 0
}

// Assign copies attrs onto the answer. The body is stored as written,
// trimmed of surrounding whitespace; it is sanitized when rendered.
func (a *Answer) Assign(attrs Attributes) {
	a.Body = strings.TrimSpace(attrs.Body)
}

// Validate checks that the answer can be stored.
func (a *Answer) Validate() error {
	if a.QuestionID == 0 {
		return ErrQuestionRequired
	}
	// A body made only of disallowed markup renders as nothing.
	if Sanitize(a.Body) == "" {
		return ErrBlankBody
	}
	return nil
}

// IsValidationError reports whether err is one of the answer validation
// failures, as opposed to a storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrBlankBody) || errors.Is(err, ErrQuestionRequired)
}
