package lifecycle

import (
	"errors"
	"fmt"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/auth"
)

// Kind classifies the outcome of a lifecycle operation.
type Kind int

const (
	// Success means the operation took effect.
	Success Kind = iota
	// Failure means validation rejected the input and nothing was written.
	Failure
	// Unauthenticated means no actor was present; nothing was written.
	Unauthenticated
	// Forbidden means the actor may not act on this answer.
	Forbidden
	// NotFound means the referenced question or answer does not exist.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the navigation decision for a request. An empty Redirect on a
// Failure means the edit form should be shown again with Answer.
type Result struct {
	Kind     Kind
	Redirect string
	Notice   string
	Alert    string
	Answer   *answer.Answer
	Err      error
}

// Redisplay reports whether the caller should render the edit form again
// instead of redirecting.
func (r Result) Redisplay() bool {
	return r.Kind == Failure && r.Redirect == ""
}

// LoginPath is where unauthenticated requests are sent.
const LoginPath = auth.LoginPath

// QuestionPath returns the page of a question.
func QuestionPath(questionID int64) string {
	return fmt.Sprintf("/questions/%d", questionID)
}

// EditAnswerPath returns the edit form of an answer.
func EditAnswerPath(answerID int64) string {
	return fmt.Sprintf("/answers/%d/edit", answerID)
}

// User-facing messages.
const (
	NoticeCreated   = "Your answer successfully added."
	NoticeUpdated   = "Your answer successfully updated."
	NoticeDeleted   = "Your answer was deleted."
	NoticeBest      = "Best answer selected."
	AlertBlankBody  = "Body can't be blank"
	AlertNoQuestion = "Question must exist"
	AlertNotAuthor  = "You can only change your own answers."
	AlertNotAsker   = "Only the author of the question can choose the best answer."
)

func alertFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, answer.ErrBlankBody):
		return AlertBlankBody
	case errors.Is(err, answer.ErrQuestionRequired):
		return AlertNoQuestion
	default:
		return err.Error()
	}
}
