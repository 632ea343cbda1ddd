package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"persona-profiler/internal/domain"
)

// SQLiteProfileRepository implementa ProfileRepository sobre sqlite.
// La unicidad por session_id la impone el índice UNIQUE de la tabla.
type SQLiteProfileRepository struct {
	db *sql.DB
}

func NewSQLiteProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

const sqliteProfileColumns = `id, session_id, owner_id, ai_analysis, structured_data, created_at`

func (r *SQLiteProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	structured, err := json.Marshal(profile.StructuredData)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+sqliteProfileColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.SessionID,
		nullableString(profile.OwnerID),
		profile.Analysis,
		string(structured),
		formatSQLiteTime(profile.CreatedAt),
	)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting profile for %s: %w", profile.SessionID, err)
	}
	return nil
}

func (r *SQLiteProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteProfileColumns+` FROM profiles WHERE id = ?`, id)
	return scanSQLiteProfile(row)
}

func (r *SQLiteProfileRepository) GetBySessionID(ctx context.Context, sessionID string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteProfileColumns+` FROM profiles WHERE session_id = ?`, sessionID)
	return scanSQLiteProfile(row)
}

func (r *SQLiteProfileRepository) List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE (? = '' OR owner_id = ?)`,
		filter.OwnerID, filter.OwnerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting profiles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteProfileColumns+`
		FROM profiles
		WHERE (? = '' OR owner_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		filter.OwnerID, filter.OwnerID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
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

func scanSQLiteProfile(row rowScanner) (domain.Profile, error) {
	var (
		p          domain.Profile
		ownerID    sql.NullString
		structured string
		createdAt  string
	)
	err := row.Scan(&p.ID, &p.SessionID, &ownerID, &p.Analysis, &structured, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	p.OwnerID = ownerID.String
	p.StructuredData = decodeProfileData([]byte(structured))
	if p.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return domain.Profile{}, fmt.Errorf("parsing profile created_at: %w", err)
	}
	return p, nil
}
