package model

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/query"
)

type trashScope int

const (
	withoutTrashed trashScope = iota
	withTrashed
	onlyTrashed
)

// Query is a lazy, typed query over one model's table.
// Nothing runs until Get, First, Find, Count or Exists is called, and each of
// those can be called repeatedly.
type Query[T any, PT ptr[T]] struct {
	b     *query.Builder
	meta  Meta
	scope trashScope
}

func newQuery[T any, PT ptr[T]](db *query.DB) *Query[T, PT] {
	meta := PT(new(T)).Meta().normalize()
	return &Query[T, PT]{
		b:    db.Table(meta.Table).Key(meta.PrimaryKey),
		meta: meta,
	}
}

// Where adds an AND comparison.
func (q *Query[T, PT]) Where(column, op string, value any) *Query[T, PT] {
	q.b.Where(column, op, value)
	return q
}

// OrWhere adds an OR comparison. The soft-delete scope still applies to the
// whole condition set.
func (q *Query[T, PT]) OrWhere(column, op string, value any) *Query[T, PT] {
	q.b.OrWhere(column, op, value)
	return q
}

func (q *Query[T, PT]) WhereIn(column string, values ...any) *Query[T, PT] {
	q.b.WhereIn(column, values...)
	return q
}

func (q *Query[T, PT]) WhereNotIn(column string, values ...any) *Query[T, PT] {
	q.b.WhereNotIn(column, values...)
	return q
}

func (q *Query[T, PT]) WhereBetween(column string, low, high any) *Query[T, PT] {
	q.b.WhereBetween(column, low, high)
	return q
}

func (q *Query[T, PT]) WhereNull(column string) *Query[T, PT] {
	q.b.WhereNull(column)
	return q
}

func (q *Query[T, PT]) WhereNotNull(column string) *Query[T, PT] {
	q.b.WhereNotNull(column)
	return q
}

func (q *Query[T, PT]) WhereGroup(fn func(g *query.Builder)) *Query[T, PT] {
	q.b.WhereGroup(fn)
	return q
}

// Join adds an INNER JOIN and selects only this model's columns.
func (q *Query[T, PT]) Join(table, first, op, second string) *Query[T, PT] {
	q.b.Join(table, first, op, second)
	return q
}

func (q *Query[T, PT]) OrderBy(column, direction string) *Query[T, PT] {
	q.b.OrderBy(column, direction)
	return q
}

func (q *Query[T, PT]) Limit(n int) *Query[T, PT] {
	q.b.Limit(n)
	return q
}

func (q *Query[T, PT]) Offset(n int) *Query[T, PT] {
	q.b.Offset(n)
	return q
}

// WithTrashed includes soft-deleted records.
func (q *Query[T, PT]) WithTrashed() *Query[T, PT] {
	q.scope = withTrashed
	return q
}

// OnlyTrashed returns soft-deleted records only.
func (q *Query[T, PT]) OnlyTrashed() *Query[T, PT] {
	q.scope = onlyTrashed
	return q
}

// Builder returns the scoped statement builder, for diagnostics or for
// terminals the typed query does not expose.
func (q *Query[T, PT]) Builder() *query.Builder {
	b := q.b.Isolate().Select(q.meta.Table + ".*")
	if !q.meta.SoftDeletes {
		return b
	}
	switch q.scope {
	case withoutTrashed:
		b.WhereNull(q.meta.column(q.meta.DeletedAtColumn))
	case onlyTrashed:
		b.WhereNotNull(q.meta.column(q.meta.DeletedAtColumn))
	}
	return b
}

// Get returns every matching record. No match is an empty slice.
func (q *Query[T, PT]) Get(ctx context.Context) ([]*T, error) {
	rows, err := q.Builder().Get(ctx)
	if err != nil {
		return nil, err
	}
	return hydrateAll[T, PT](rows)
}

// First returns the first matching record.
func (q *Query[T, PT]) First(ctx context.Context) (*T, bool, error) {
	row, ok, err := q.Builder().First(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	rec, err := hydrate[T, PT](row)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Find returns the record with the given primary key.
func (q *Query[T, PT]) Find(ctx context.Context, id any) (*T, bool, error) {
	b := q.Builder().Where(q.meta.column(q.meta.PrimaryKey), "=", id)
	row, ok, err := b.First(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	rec, err := hydrate[T, PT](row)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Count returns the number of matching records.
func (q *Query[T, PT]) Count(ctx context.Context) (int64, error) {
	return q.Builder().Count(ctx)
}

// Exists reports whether any record matches.
func (q *Query[T, PT]) Exists(ctx context.Context) (bool, error) {
	return q.Builder().Exists(ctx)
}
