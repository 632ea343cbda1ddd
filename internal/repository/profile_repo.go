package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"persona-profiler/internal/domain"
)

// ProfileFilter acota listados de perfiles. OwnerID vacío no filtra.
type ProfileFilter struct {
	OwnerID string
	Limit   int
	Offset  int
}

type ProfileRepository interface {
	// Create devuelve ErrDuplicate si ya existe un perfil para la sesión.
	Create(ctx context.Context, profile domain.Profile) error
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetBySessionID(ctx context.Context, sessionID string) (domain.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, int, error)
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const pgProfileColumns = `id, session_id, owner_id, ai_analysis, structured_data, created_at`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	structured, err := json.Marshal(profile.StructuredData)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}

	const query = `
		INSERT INTO profiles (id, session_id, owner_id, ai_analysis, structured_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		profile.ID,
		profile.SessionID,
		nullableString(profile.OwnerID),
		profile.Analysis,
		structured,
		profile.CreatedAt,
	)
	if isPgUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	query := `SELECT ` + pgProfileColumns + ` FROM profiles WHERE id = $1`
	return scanPgProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *PgProfileRepository) GetBySessionID(ctx context.Context, sessionID string) (domain.Profile, error) {
	query := `SELECT ` + pgProfileColumns + ` FROM profiles WHERE session_id = $1`
	return scanPgProfile(r.pool.QueryRow(ctx, query, sessionID))
}

func (r *PgProfileRepository) List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, int, error) {
	const countQuery = `SELECT COUNT(*) FROM profiles WHERE ($1 = '' OR owner_id = $1)`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, filter.OwnerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + pgProfileColumns + `
		FROM profiles
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, filter.OwnerID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanPgProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func scanPgProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p          domain.Profile
		ownerID    *string
		structured []byte
	)
	err := row.Scan(&p.ID, &p.SessionID, &ownerID, &p.Analysis, &structured, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	p.OwnerID = derefString(ownerID)
	p.StructuredData = decodeProfileData(structured)
	return p, nil
}
