package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"persona-profiler/internal/domain"
)

// QuestionRepository lee el catálogo de preguntas, ordenado por order_num.
type QuestionRepository interface {
	List(ctx context.Context) ([]domain.Question, error)
	GetByID(ctx context.Context, id int64) (domain.Question, error)
	// Seed inserta las preguntas cuyo id no exista; las existentes no se tocan.
	Seed(ctx context.Context, questions []domain.Question) error
}

type PgQuestionRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuestionRepository(pool *pgxpool.Pool) *PgQuestionRepository {
	return &PgQuestionRepository{pool: pool}
}

const questionColumns = `id, category, content, order_num, is_required, created_at`

func (r *PgQuestionRepository) List(ctx context.Context) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions ORDER BY order_num ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.Content, &q.OrderNum, &q.IsRequired, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *PgQuestionRepository) GetByID(ctx context.Context, id int64) (domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	var q domain.Question
	err := r.pool.QueryRow(ctx, query, id).Scan(&q.ID, &q.Category, &q.Content, &q.OrderNum, &q.IsRequired, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, ErrNotFound
	}
	return q, err
}

func (r *PgQuestionRepository) Seed(ctx context.Context, questions []domain.Question) error {
	const query = `
		INSERT INTO questions (id, category, content, order_num, is_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(query, q.ID, q.Category, q.Content, q.OrderNum, q.IsRequired, q.CreatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}
