// Package reputation recalculates question reputation scores. Answer events
// enqueue a Job through a Dispatcher; a Worker consumes the queue and runs
// the Calculator once per job.
package reputation

import (
	"context"
	"fmt"

	"github.com/evcraddock/qa-forum/internal/question"
)

// Score weights used by ScoreCalculator.
const (
	PointsPerAnswer = 2
	PointsForBest   = 5
)

// Calculator computes and stores the reputation of a question.
type Calculator interface {
	Calculate(ctx context.Context, q *question.Question) error
}

// AnswerCounter counts the answers attached to a question.
type AnswerCounter interface {
	CountByQuestionID(ctx context.Context, questionID int64) (int64, error)
}

// ScoreStore persists a computed score.
type ScoreStore interface {
	SetReputation(ctx context.Context, id int64, score int64) error
}

// ScoreCalculator scores a question from its answer count and whether a best
// answer has been chosen.
type ScoreCalculator struct {
	answers AnswerCounter
	scores  ScoreStore
}

// NewScoreCalculator creates a ScoreCalculator.
func NewScoreCalculator(answers AnswerCounter, scores ScoreStore) *ScoreCalculator {
	return &ScoreCalculator{answers: answers, scores: scores}
}

// Score returns the reputation for a question with n answers.
func Score(n int64, hasBest bool) int64 {
	score := n * PointsPerAnswer
	if hasBest {
		score += PointsForBest
	}
	return score
}

// Calculate implements Calculator.
func (c *ScoreCalculator) Calculate(ctx context.Context, q *question.Question) error {
	n, err := c.answers.CountByQuestionID(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("counting answers for question %d: %w", q.ID, err)
	}

	score := Score(n, q.HasBestAnswer())
	if err := c.scores.SetReputation(ctx, q.ID, score); err != nil {
		return fmt.Errorf("storing reputation for question %d: %w", q.ID, err)
	}

	q.Reputation = score
	return nil
}
