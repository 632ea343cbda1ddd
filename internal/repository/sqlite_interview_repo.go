package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"persona-profiler/internal/domain"
)

// SQLiteSessionRepository implementa SessionRepository sobre database/sql + sqlite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, session domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interview_sessions (id, owner_id, turn, created_at) VALUES (?, ?, ?, ?)`,
		session.ID,
		nullableString(session.OwnerID),
		session.Turn,
		formatSQLiteTime(session.CreatedAt),
	)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", session.ID, err)
	}
	return nil
}

func (r *SQLiteSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	var (
		session   domain.Session
		ownerID   sql.NullString
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, turn, created_at FROM interview_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &ownerID, &session.Turn, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	session.OwnerID = ownerID.String
	if session.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return domain.Session{}, fmt.Errorf("parsing session created_at: %w", err)
	}
	return session, nil
}

func (r *SQLiteSessionRepository) IncrementTurn(ctx context.Context, id string) (int, error) {
	var turn int
	err := r.db.QueryRowContext(ctx,
		`UPDATE interview_sessions SET turn = turn + 1 WHERE id = ? RETURNING turn`, id,
	).Scan(&turn)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing turn for %s: %w", id, err)
	}
	return turn, nil
}

// SQLiteMessageRepository implementa MessageRepository sobre sqlite.
type SQLiteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, message domain.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interview_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		message.ID,
		message.SessionID,
		message.Role,
		message.Content,
		formatSQLiteTime(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting message for %s: %w", message.SessionID, err)
	}
	return nil
}

func (r *SQLiteMessageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM interview_messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", sessionID, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg       domain.Message
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, err
		}
		if msg.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
