package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// DefaultTimeout bounds a statement whose context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Executor is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// DB issues builder statements against an Executor.
// It is safe for concurrent use when the underlying Executor is.
type DB struct {
	conn    Executor
	logger  *slog.Logger
	txOpts  *sql.TxOptions
	timeout time.Duration
	dialect Dialect
	inTx    bool
}

// Option configures a DB.
type Option func(*DB)

// WithDialect sets the placeholder and insert-id dialect. Defaults to SQLite.
func WithDialect(d Dialect) Option {
	return func(db *DB) {
		db.dialect = d
	}
}

// WithTimeout sets the statement timeout applied when the context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.timeout = d
		}
	}
}

// WithLogger sets the logger used for statement debug logs.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithTxOptions sets the options used by WithTx.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(db *DB) {
		db.txOpts = opts
	}
}

// New wraps exec.
func New(exec Executor, opts ...Option) *DB {
	db := &DB{
		conn:    exec,
		dialect: SQLite,
		timeout: DefaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Dialect returns the configured dialect.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise. Nested calls reuse the
// outer transaction.
func (db *DB) WithTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}
	b, ok := db.conn.(beginner)
	if !ok {
		return ErrTxNotSupported
	}

	tx, err := b.BeginTx(ctx, db.txOpts)
	if err != nil {
		return &QueryError{SQL: "BEGIN", Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txDB := *db
	txDB.conn = tx
	txDB.inTx = true

	if err := fn(&txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &QueryError{SQL: "COMMIT", Err: err}
	}
	return nil
}

// CanBegin reports whether WithTx can open a transaction or is already inside one.
func (db *DB) CanBegin() bool {
	if db.inTx {
		return true
	}
	_, ok := db.conn.(beginner)
	return ok
}

// Exists reports whether table has a row where column equals value.
func (db *DB) Exists(ctx context.Context, table, column string, value any) (bool, error) {
	return db.Table(table).Where(column, "=", value).Exists(ctx)
}

// Select runs a raw statement written with "?" placeholders.
func (db *DB) Select(ctx context.Context, sqlText string, args ...any) ([]Row, error) {
	return db.query(ctx, sqlText, args)
}

// Exec runs a raw statement written with "?" placeholders and returns the affected row count.
func (db *DB) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	return db.affected(ctx, sqlText, args)
}

func (db *DB) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.timeout)
}

func (db *DB) query(ctx context.Context, sqlText string, args []any) ([]Row, error) {
	ctx, cancel := db.bound(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, db.dialect.Rebind(sqlText), args...)
	if err != nil {
		return nil, db.fail(ctx, sqlText, args, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, db.fail(ctx, sqlText, args, err)
	}
	db.trace(ctx, sqlText, args, start)
	return result, nil
}

func (db *DB) exec(ctx context.Context, sqlText string, args []any) (sql.Result, error) {
	ctx, cancel := db.bound(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, db.dialect.Rebind(sqlText), args...)
	if err != nil {
		return nil, db.fail(ctx, sqlText, args, err)
	}
	db.trace(ctx, sqlText, args, start)
	return res, nil
}

func (db *DB) affected(ctx context.Context, sqlText string, args []any) (int64, error) {
	res, err := db.exec(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{SQL: sqlText, Args: args, Err: err}
	}
	return n, nil
}

func (db *DB) trace(ctx context.Context, sqlText string, args []any, start time.Time) {
	db.logger.DebugContext(ctx, "query executed",
		slog.String("sql", sqlText),
		slog.Int("args", len(args)),
		slog.Duration("duration", time.Since(start)),
	)
}

func (db *DB) fail(ctx context.Context, sqlText string, args []any, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("statement exceeded %s: %w", db.timeout, err)
	}
	db.logger.DebugContext(ctx, "query failed",
		slog.String("sql", sqlText),
		slog.String("error", err.Error()),
	)
	return &QueryError{SQL: sqlText, Args: args, Err: err}
}
