package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"persona-profiler/internal/domain"
)

// AnswerRepository persiste respuestas únicas por (session_id, question_id).
type AnswerRepository interface {
	// Upsert inserta o sobrescribe el contenido y devuelve la fila resultante.
	Upsert(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error)
}

type PgAnswerRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnswerRepository(pool *pgxpool.Pool) *PgAnswerRepository {
	return &PgAnswerRepository{pool: pool}
}

func (r *PgAnswerRepository) Upsert(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	const query = `
		INSERT INTO answers (id, session_id, question_id, content, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, question_id)
		DO UPDATE SET
			content = EXCLUDED.content,
			owner_id = EXCLUDED.owner_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id, session_id, question_id, content, owner_id, created_at, updated_at
	`
	var (
		saved   domain.Answer
		ownerID *string
	)
	err := r.pool.QueryRow(ctx, query,
		answer.ID,
		answer.SessionID,
		answer.QuestionID,
		answer.Content,
		nullableString(answer.OwnerID),
		answer.CreatedAt,
		answer.UpdatedAt,
	).Scan(
		&saved.ID,
		&saved.SessionID,
		&saved.QuestionID,
		&saved.Content,
		&ownerID,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return domain.Answer{}, err
	}
	saved.OwnerID = derefString(ownerID)
	return saved, nil
}

func (r *PgAnswerRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	const query = `
		SELECT id, session_id, question_id, content, owner_id, created_at, updated_at
		FROM answers
		WHERE session_id = $1
		ORDER BY question_id ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []domain.Answer{}
	for rows.Next() {
		var (
			a       domain.Answer
			ownerID *string
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Content, &ownerID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.OwnerID = derefString(ownerID)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}
