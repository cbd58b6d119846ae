package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/storefront/pkg/query"
)

// Migrate applies every pending goose migration found at the root of migrations.
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	sub, _ := fs.Sub(migrations, "migrations")
//	err := db.Migrate(ctx, conn, cfg, sub, log)
func Migrate(ctx context.Context, conn *sql.DB, cfg Config, migrations fs.FS, log *slog.Logger) error {
	if err := setup(cfg, migrations, log); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, conn *sql.DB, cfg Config, migrations fs.FS, log *slog.Logger) error {
	if err := setup(cfg, migrations, log); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, conn, "."); err != nil {
		return errors.Join(ErrRollbackMigration, err)
	}
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, conn *sql.DB, cfg Config, log *slog.Logger) (int64, error) {
	if err := setup(cfg, nil, log); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, conn)
}

func setup(cfg Config, migrations fs.FS, log *slog.Logger) error {
	dialect, err := query.ParseDialect(cfg.Driver)
	if err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	gooseDialect := "postgres"
	if dialect == query.SQLite {
		gooseDialect = "sqlite3"
	}

	if migrations != nil {
		goose.SetBaseFS(migrations)
	}
	goose.SetLogger(&gooseLoggerAdapter{log})
	table := cfg.MigrationsTable
	if table == "" {
		table = "schema_migrations"
	}
	goose.SetTableName(table)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	if g.log != nil {
		g.log.Info(fmt.Sprintf(format, args...))
	}
}

// Fatalf logs only; goose returns the error to the caller, which decides
// whether to exit.
func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	if g.log != nil {
		g.log.Error(fmt.Sprintf(format, args...))
	}
}
