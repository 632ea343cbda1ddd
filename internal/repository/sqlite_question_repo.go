package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"persona-profiler/internal/domain"
)

type SQLiteQuestionRepository struct {
	db *sql.DB
}

func NewSQLiteQuestionRepository(db *sql.DB) *SQLiteQuestionRepository {
	return &SQLiteQuestionRepository{db: db}
}

func (r *SQLiteQuestionRepository) List(ctx context.Context) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions ORDER BY order_num ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		q, err := scanSQLiteQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *SQLiteQuestionRepository) GetByID(ctx context.Context, id int64) (domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ?`

	q, err := scanSQLiteQuestion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, ErrNotFound
	}
	return q, err
}

func (r *SQLiteQuestionRepository) Seed(ctx context.Context, questions []domain.Question) error {
	const query = `
		INSERT OR IGNORE INTO questions (id, category, content, order_num, is_required, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range questions {
		required := 0
		if q.IsRequired {
			required = 1
		}
		if _, err := tx.ExecContext(ctx, query, q.ID, q.Category, q.Content, q.OrderNum, required, formatSQLiteTime(q.CreatedAt)); err != nil {
			return fmt.Errorf("seed question %d: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

func scanSQLiteQuestion(row rowScanner) (domain.Question, error) {
	var (
		q         domain.Question
		required  int
		createdAt string
	)
	if err := row.Scan(&q.ID, &q.Category, &q.Content, &q.OrderNum, &required, &createdAt); err != nil {
		return domain.Question{}, err
	}
	q.IsRequired = required != 0
	t, err := parseSQLiteTime(createdAt)
	if err != nil {
		return domain.Question{}, fmt.Errorf("parse created_at: %w", err)
	}
	q.CreatedAt = t
	return q, nil
}
