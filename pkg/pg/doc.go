// Package pg bootstraps the PostgreSQL account directory: it opens a pgx
// connection pool with retries, applies goose migrations from an embedded
// filesystem and exposes health-check and error classification helpers.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, account.Migrations, log); err != nil {
//		return err
//	}
//
//	dir := account.NewPostgresDirectory(pool)
//
// # Errors
//
// Connection and migration failures are reported as sentinel errors joined
// with the driver error. IsNotFoundError and IsDuplicateKeyError classify
// query errors without leaking pgx types into callers.
package pg
