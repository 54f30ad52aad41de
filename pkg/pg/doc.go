// Package pg bootstraps the PostgreSQL layer behind the outbox store: a
// pgx/v5 connection pool with startup retries, goose schema migrations, a
// health check, and error classification helpers.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    log.Fatal(err)
//	}
//
// Configuration comes entirely from environment variables; see the Config
// field tags for names and defaults.
package pg
