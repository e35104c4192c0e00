package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository provides CRUD operations for questions.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a question repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, title, body, author, reputation, best_answer_id, created_at, updated_at`

// Create adds a new question and returns it with its generated ID.
func (r *Repository) Create(ctx context.Context, title, body, author string) (*Question, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO questions (title, body, author) VALUES (?, ?, ?)",
		title, strings.TrimSpace(body), author,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting question: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a question by its ID. A missing question yields an error
// wrapping ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Question, error) {
	query := fmt.Sprintf("SELECT %s FROM questions WHERE id = ?", selectColumns)

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying question %d: %w", id, err)
	}

	return q, nil
}

// List returns all questions, newest first.
func (r *Repository) List(ctx context.Context) (questions []*Question, err error) {
	query := fmt.Sprintf("SELECT %s FROM questions ORDER BY id DESC", selectColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}

	return questions, nil
}

// SetReputation stores a recomputed reputation score.
func (r *Repository) SetReputation(ctx context.Context, id int64, score int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE questions SET reputation = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		score, id,
	)
	if err != nil {
		return fmt.Errorf("updating reputation: %w", err)
	}
	return requireOneRow(result, id)
}

// SetBestAnswer marks answerID as the question's best answer. The answer
// must belong to the question.
func (r *Repository) SetBestAnswer(ctx context.Context, id, answerID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE questions SET best_answer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND EXISTS (SELECT 1 FROM answers WHERE id = ? AND question_id = ?)`,
		answerID, id, answerID, id,
	)
	if err != nil {
		return fmt.Errorf("setting best answer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("answer %d is not an answer to question %d", answerID, id)
	}
	return nil
}

// Delete removes a question and, by cascade, its answers.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}
