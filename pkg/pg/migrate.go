package pg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// logger is the slog-compatible subset migration output is routed through.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate applies goose migrations from cfg.MigrationsPath, bridging the pgx
// pool to the database/sql interface goose requires. Run it before starting
// enqueuers or dispatchers so the outbox tables exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	if cfg.MigrationsPath == "" {
		return errors.Join(ErrMigrationsFailed, ErrMigrationsPathNotSet)
	}
	if _, err := os.Stat(cfg.MigrationsPath); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		return errors.Join(ErrMigrationsFailed, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration db handle", "error", err)
		}
	}()

	goose.SetLogger(&gooseLogger{ctx: ctx, log: log})
	goose.SetTableName(cfg.MigrationsTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrationsFailed, err)
	}
	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return errors.Join(ErrMigrationsFailed, err)
	}
	return nil
}

// gooseLogger routes goose's printf-style output into structured logging.
type gooseLogger struct {
	ctx context.Context
	log logger
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.log.ErrorContext(g.ctx, fmt.Sprintf(format, v...))
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.log.InfoContext(g.ctx, fmt.Sprintf(format, v...))
}
