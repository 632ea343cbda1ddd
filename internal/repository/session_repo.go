package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"persona-profiler/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	// IncrementTurn suma un turno de forma atómica y devuelve el nuevo valor.
	IncrementTurn(ctx context.Context, id string) (int, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO interview_sessions (id, owner_id, turn, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		nullableString(session.OwnerID),
		session.Turn,
		session.CreatedAt,
	)
	if isPgUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, owner_id, turn, created_at
		FROM interview_sessions
		WHERE id = $1
	`
	var (
		session domain.Session
		ownerID *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&ownerID,
		&session.Turn,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	session.OwnerID = derefString(ownerID)
	return session, err
}

func (r *PgSessionRepository) IncrementTurn(ctx context.Context, id string) (int, error) {
	const query = `
		UPDATE interview_sessions SET turn = turn + 1
		WHERE id = $1
		RETURNING turn
	`
	var turn int
	err := r.pool.QueryRow(ctx, query, id).Scan(&turn)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return turn, err
}
