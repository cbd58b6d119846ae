// Package db opens the application's database pool and runs its migrations.
//
// Two database/sql drivers are registered: pgx for PostgreSQL and the pure Go
// modernc SQLite driver for development and tests. Connect pings with
// retries; Query wraps the pool in a query.DB with the matching dialect and
// statement timeout; Migrate and Rollback run goose migrations from an fs.FS.
//
//	conn, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, conn, cfg.Database, migrations, log); err != nil {
//		return err
//	}
//	qdb, err := db.Query(conn, cfg.Database, log)
//
// Healthcheck and Shutdown plug the pool into the readiness endpoint and the
// graceful shutdown sequence.
package db
