package repository

import (
	"context"
	"database/sql"
	"fmt"

	"persona-profiler/internal/domain"
)

// SQLiteAnswerRepository implementa AnswerRepository sobre sqlite.
type SQLiteAnswerRepository struct {
	db *sql.DB
}

func NewSQLiteAnswerRepository(db *sql.DB) *SQLiteAnswerRepository {
	return &SQLiteAnswerRepository{db: db}
}

func (r *SQLiteAnswerRepository) Upsert(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO answers (id, session_id, question_id, content, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, question_id)
		DO UPDATE SET
			content = excluded.content,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at
		RETURNING id, session_id, question_id, content, owner_id, created_at, updated_at`,
		answer.ID,
		answer.SessionID,
		answer.QuestionID,
		answer.Content,
		nullableString(answer.OwnerID),
		formatSQLiteTime(answer.CreatedAt),
		formatSQLiteTime(answer.UpdatedAt),
	)
	saved, err := scanSQLiteAnswer(row)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("upserting answer %s/%d: %w", answer.SessionID, answer.QuestionID, err)
	}
	return saved, nil
}

func (r *SQLiteAnswerRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, question_id, content, owner_id, created_at, updated_at
		FROM answers WHERE session_id = ? ORDER BY question_id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers for %s: %w", sessionID, err)
	}
	defer rows.Close()

	answers := []domain.Answer{}
	for rows.Next() {
		a, err := scanSQLiteAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAnswer(row rowScanner) (domain.Answer, error) {
	var (
		a                    domain.Answer
		ownerID              sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Content, &ownerID, &createdAt, &updatedAt); err != nil {
		return domain.Answer{}, err
	}
	a.OwnerID = ownerID.String
	var err error
	if a.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return domain.Answer{}, err
	}
	if a.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return domain.Answer{}, err
	}
	return a, nil
}
