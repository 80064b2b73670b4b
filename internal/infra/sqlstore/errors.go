package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"trivia-service/internal/domain"
)

const pgUniqueViolation = "23505"

// isUniqueViolation recognizes unique and primary key violations from every
// driver Open supports.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pgdErr pgdriver.Error
	if errors.As(err, &pgdErr) {
		return pgdErr.Field('C') == pgUniqueViolation
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// translate maps driver errors onto domain kinds. notFound is used for sql.ErrNoRows.
func translate(err error, notFound *domain.Error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows) && notFound != nil:
		return domain.Wrap(notFound.Kind, what+" not found", err)
	case isUniqueViolation(err):
		return domain.Wrap(domain.KindConflict, what+" already exists", err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
