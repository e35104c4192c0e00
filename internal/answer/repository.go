package answer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository provides CRUD operations for answers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an answer repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, question_id, author, body, created_at, updated_at`

// CreateUnder creates a new answer on a question authored by author.
// Invalid attributes are reported as a validation error and nothing is written.
func (r *Repository) CreateUnder(ctx context.Context, questionID int64, author string, attrs Attributes) (*Answer, error) {
	a := &Answer{QuestionID: questionID, Author: author}
	a.Assign(attrs)
	if err := a.Validate(); err != nil {
		return a, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO answers (question_id, author, body) VALUES (?, ?, ?)",
		a.QuestionID, a.Author, a.Body,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting answer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns an answer by its ID. A missing answer yields an error
// wrapping ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Answer, error) {
	query := fmt.Sprintf("SELECT %s FROM answers WHERE id = ?", selectColumns)

	var a Answer
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.QuestionID, &a.Author, &a.Body, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading answer %d: %w", id, err)
	}

	return &a, nil
}

// Update assigns attrs to a and persists the body. The assignment is kept
// on a even when validation fails so callers can redisplay the draft; the
// stored row is only touched when a is valid.
func (r *Repository) Update(ctx context.Context, a *Answer, attrs Attributes) error {
	a.Assign(attrs)
	if err := a.Validate(); err != nil {
		return err
	}
	if a.IsNew() {
		return fmt.Errorf("updating answer: %w", ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE answers SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		a.Body, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating answer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("answer %d: %w", a.ID, ErrNotFound)
	}

	return nil
}

// Delete removes an answer by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM answers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting answer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}

	return nil
}

// ListByQuestionID returns all answers for a question, oldest first.
func (r *Repository) ListByQuestionID(ctx context.Context, questionID int64) (answers []*Answer, err error) {
	query := fmt.Sprintf("SELECT %s FROM answers WHERE question_id = ? ORDER BY id ASC", selectColumns)

	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Author, &a.Body, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		answers = append(answers, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}

	return answers, nil
}

// CountByQuestionID returns how many answers a question has.
func (r *Repository) CountByQuestionID(ctx context.Context, questionID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM answers WHERE question_id = ?", questionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting answers: %w", err)
	}
	return n, nil
}
