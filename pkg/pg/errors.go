package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConnectionFailed      = errors.New("failed to open postgres connection")
	ErrInvalidConfig         = errors.New("failed to parse postgres config")
	ErrHealthcheckFailed     = errors.New("postgres healthcheck failed")
	ErrMigrationsFailed      = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound = errors.New("migrations directory not found")
	ErrMigrationsPathNotSet  = errors.New("migrations path not provided")
)

// IsNotFound reports pgx.ErrNoRows for uniform "not found" handling.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports a referential integrity violation
// (SQLSTATE 23503).
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
