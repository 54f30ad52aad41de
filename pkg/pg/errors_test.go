package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/magnetarhq/portalcore/pkg/pg"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFound(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFound(fmt.Errorf("lookup: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFound(nil))
	assert.False(t, pg.IsNotFound(errors.New("other")))
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsDuplicateKey(&pgconn.PgError{Code: "23505"}))
	assert.True(t, pg.IsDuplicateKey(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, pg.IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsDuplicateKey(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsForeignKeyViolation(errors.New("other")))
}
