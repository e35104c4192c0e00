// Package lifecycle mediates every state change of an answer: it checks the
// acting user, resolves the target records, applies the authorship policy,
// writes through the stores and decides where the request goes next.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/auth"
	"github.com/evcraddock/qa-forum/internal/question"
	"github.com/evcraddock/qa-forum/internal/reputation"
)

// QuestionStore is the subset of question.Repository the handler needs.
type QuestionStore interface {
	GetByID(ctx context.Context, id int64) (*question.Question, error)
	SetBestAnswer(ctx context.Context, id, answerID int64) error
}

// AnswerStore is the subset of answer.Repository the handler needs.
type AnswerStore interface {
	CreateUnder(ctx context.Context, questionID int64, author string, attrs answer.Attributes) (*answer.Answer, error)
	GetByID(ctx context.Context, id int64) (*answer.Answer, error)
	Update(ctx context.Context, a *answer.Answer, attrs answer.Attributes) error
	Delete(ctx context.Context, id int64) error
}

// Dispatcher queues reputation recalculations.
type Dispatcher interface {
	Dispatch(ctx context.Context, questionID int64, reason string) (reputation.Job, error)
}

// Policy holds authorization switches.
type Policy struct {
	// RequireAuthorshipOnMutate restricts update and destroy to the
	// answer's author. When false any authenticated actor may change any
	// answer. Edit follows the same rule so the form is never offered for
	// an update that would be refused.
	RequireAuthorshipOnMutate bool
}

// Handler runs answer lifecycle operations.
type Handler struct {
	questions  QuestionStore
	answers    AnswerStore
	reputation Dispatcher
	policy     Policy
}

// NewHandler creates a lifecycle handler. reputation may be nil, in which
// case no recalculations are queued.
func NewHandler(questions QuestionStore, answers AnswerStore, reputation Dispatcher, policy Policy) *Handler {
	return &Handler{
		questions:  questions,
		answers:    answers,
		reputation: reputation,
		policy:     policy,
	}
}

// Policy returns the handler's authorization policy.
func (h *Handler) Policy() Policy {
	return h.policy
}

// AnswerRef identifies the answer a request targets. The zero value means
// the request named no answer.
type AnswerRef struct {
	ID       int64
	Provided bool
}

// Ref returns a reference to the answer with the given ID.
func Ref(id int64) AnswerRef {
	return AnswerRef{ID: id, Provided: true}
}

// resolution is the outcome of looking up an AnswerRef: either the stored
// answer (found) or nothing, because no ID was provided.
type resolution struct {
	answer *answer.Answer
	found  bool
}

// resolve looks up ref. A provided ID that does not exist is an error
// wrapping answer.ErrNotFound.
func (h *Handler) resolve(ctx context.Context, ref AnswerRef) (resolution, error) {
	if !ref.Provided {
		return resolution{}, nil
	}
	a, err := h.answers.GetByID(ctx, ref.ID)
	if err != nil {
		return resolution{}, err
	}
	return resolution{answer: a, found: true}, nil
}

func unauthenticated() Result {
	return Result{Kind: Unauthenticated, Redirect: LoginPath}
}

func notFound(err error) Result {
	return Result{Kind: NotFound, Err: err}
}

func (h *Handler) forbidden(a *answer.Answer) Result {
	return Result{
		Kind:     Forbidden,
		Redirect: QuestionPath(a.QuestionID),
		Alert:    AlertNotAuthor,
		Answer:   a,
	}
}

// mayMutate applies the authorship policy.
func (h *Handler) mayMutate(actor *auth.Actor, a *answer.Answer) bool {
	if !h.policy.RequireAuthorshipOnMutate {
		return true
	}
	return actor.Is(a.Author)
}

// Create adds an answer to a question on behalf of actor. Invalid input
// redirects back to the question with an alert; the draft is not kept.
func (h *Handler) Create(ctx context.Context, actor *auth.Actor, questionID int64, attrs answer.Attributes) (Result, error) {
	if actor == nil {
		return unauthenticated(), nil
	}

	q, err := h.questions.GetByID(ctx, questionID)
	if errors.Is(err, question.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading question %d: %w", questionID, err)
	}

	a, err := h.answers.CreateUnder(ctx, q.ID, actor.ID, attrs)
	if answer.IsValidationError(err) {
		return Result{
			Kind:     Failure,
			Redirect: QuestionPath(q.ID),
			Alert:    alertFor(err),
			Err:      err,
		}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("creating answer: %w", err)
	}

	slog.Info("answer created", "answer_id", a.ID, "question_id", q.ID, "actor", actor.ID)
	h.recalculate(ctx, q.ID, reputation.ReasonAnswerCreated)

	return Result{
		Kind:     Success,
		Redirect: QuestionPath(q.ID),
		Notice:   NoticeCreated,
		Answer:   a,
	}, nil
}

// Edit returns the answer to show in the edit form.
func (h *Handler) Edit(ctx context.Context, actor *auth.Actor, answerID int64) (Result, error) {
	if actor == nil {
		return unauthenticated(), nil
	}

	res, err := h.resolve(ctx, Ref(answerID))
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading answer %d: %w", answerID, err)
	}

	if !h.mayMutate(actor, res.answer) {
		return h.forbidden(res.answer), nil
	}

	return Result{Kind: Success, Answer: res.answer}, nil
}

// Update assigns attrs to the referenced answer. A request that names no
// answer works on a blank, unsaved one, which never passes validation, so
// the edit form is shown again and nothing is written.
func (h *Handler) Update(ctx context.Context, actor *auth.Actor, ref AnswerRef, attrs answer.Attributes) (Result, error) {
	if actor == nil {
		return unauthenticated(), nil
	}

	res, err := h.resolve(ctx, ref)
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading answer %d: %w", ref.ID, err)
	}

	a := res.answer
	if !res.found {
		a = &answer.Answer{}
	} else if !h.mayMutate(actor, a) {
		return h.forbidden(a), nil
	}

	err = h.answers.Update(ctx, a, attrs)
	if answer.IsValidationError(err) {
		return Result{
			Kind:   Failure,
			Alert:  alertFor(err),
			Answer: a,
			Err:    err,
		}, nil
	}
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("updating answer %d: %w", a.ID, err)
	}

	slog.Info("answer updated", "answer_id", a.ID, "question_id", a.QuestionID, "actor", actor.ID)

	return Result{
		Kind:     Success,
		Redirect: QuestionPath(a.QuestionID),
		Notice:   NoticeUpdated,
		Answer:   a,
	}, nil
}

// Destroy deletes the referenced answer.
func (h *Handler) Destroy(ctx context.Context, actor *auth.Actor, ref AnswerRef) (Result, error) {
	if actor == nil {
		return unauthenticated(), nil
	}
	if !ref.Provided {
		return notFound(answer.ErrNotFound), nil
	}

	res, err := h.resolve(ctx, ref)
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading answer %d: %w", ref.ID, err)
	}

	a := res.answer
	if !h.mayMutate(actor, a) {
		return h.forbidden(a), nil
	}

	err = h.answers.Delete(ctx, a.ID)
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("deleting answer %d: %w", a.ID, err)
	}

	slog.Info("answer deleted", "answer_id", a.ID, "question_id", a.QuestionID, "actor", actor.ID)
	h.recalculate(ctx, a.QuestionID, reputation.ReasonAnswerDeleted)

	return Result{
		Kind:     Success,
		Redirect: QuestionPath(a.QuestionID),
		Notice:   NoticeDeleted,
		Answer:   a,
	}, nil
}

// MarkBest records the answer as its question's best answer. Only the
// question's author may do this, whatever the policy.
func (h *Handler) MarkBest(ctx context.Context, actor *auth.Actor, answerID int64) (Result, error) {
	if actor == nil {
		return unauthenticated(), nil
	}

	res, err := h.resolve(ctx, Ref(answerID))
	if errors.Is(err, answer.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading answer %d: %w", answerID, err)
	}
	a := res.answer

	q, err := h.questions.GetByID(ctx, a.QuestionID)
	if errors.Is(err, question.ErrNotFound) {
		return notFound(err), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading question %d: %w", a.QuestionID, err)
	}

	if !actor.Is(q.Author) {
		return Result{
			Kind:     Forbidden,
			Redirect: QuestionPath(q.ID),
			Alert:    AlertNotAsker,
			Answer:   a,
		}, nil
	}

	if err := h.questions.SetBestAnswer(ctx, q.ID, a.ID); err != nil {
		return Result{}, fmt.Errorf("marking answer %d best: %w", a.ID, err)
	}

	slog.Info("best answer selected", "answer_id", a.ID, "question_id", q.ID, "actor", actor.ID)
	h.recalculate(ctx, q.ID, reputation.ReasonBestAnswer)

	return Result{
		Kind:     Success,
		Redirect: QuestionPath(q.ID),
		Notice:   NoticeBest,
		Answer:   a,
	}, nil
}

// recalculate queues a reputation job. Failing to queue is logged; the
// answer change has already been committed.
func (h *Handler) recalculate(ctx context.Context, questionID int64, reason string) {
	if h.reputation == nil {
		return
	}
	if _, err := h.reputation.Dispatch(ctx, questionID, reason); err != nil {
		slog.Error("queueing reputation recalculation",
			"question_id", questionID,
			"reason", reason,
			"error", err,
		)
	}
}
