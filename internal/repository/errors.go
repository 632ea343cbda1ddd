package repository

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"persona-profiler/internal/domain"
)

var (
	// ErrNotFound se devuelve cuando la fila pedida no existe.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate se devuelve cuando un insert viola una restricción UNIQUE.
	ErrDuplicate = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isSQLiteUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullableString convierte "" en NULL para columnas opcionales.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// placeholderProfileData se usa al leer un bloque guardado que no se puede decodificar.
func placeholderProfileData() domain.ProfileData {
	return domain.ProfileData{
		PersonalityTraits:    []string{},
		Motivations:          []string{},
		Values:               []string{},
		BehavioralTendencies: []string{},
		Summary:              "No summary yet",
	}
}

func decodeProfileData(raw []byte) domain.ProfileData {
	var data domain.ProfileData
	if len(raw) == 0 || json.Unmarshal(raw, &data) != nil || data.IsEmpty() {
		return placeholderProfileData()
	}
	return data
}

// Ancho fijo para que el orden lexicográfico coincida con el temporal.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}
