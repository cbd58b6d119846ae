package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/storefront/pkg/query"
)

// Repository persists one model type.
//
//	products := model.NewRepository[Product](db)
//	p, ok, err := products.Find(ctx, 7)
type Repository[T any, PT ptr[T]] struct {
	db   *query.DB
	meta Meta
	now  func() time.Time
}

// NewRepository returns a repository for T. T must embed Base and implement
// Record on its pointer.
func NewRepository[T any, PT ptr[T]](db *query.DB) *Repository[T, PT] {
	return &Repository[T, PT]{
		db:   db,
		meta: PT(new(T)).Meta().normalize(),
		now:  now,
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Meta returns the normalized table metadata.
func (r *Repository[T, PT]) Meta() Meta {
	return r.meta
}

// DB returns the database the repository writes to.
func (r *Repository[T, PT]) DB() *query.DB {
	return r.db
}

// WithDB returns a copy bound to db, typically a transaction handle.
func (r *Repository[T, PT]) WithDB(db *query.DB) *Repository[T, PT] {
	c := *r
	c.db = db
	return &c
}

// Query starts a lazy query with the soft-delete scope applied.
func (r *Repository[T, PT]) Query() *Query[T, PT] {
	return newQuery[T, PT](r.db)
}

// All is Query without conditions.
func (r *Repository[T, PT]) All() *Query[T, PT] {
	return r.Query()
}

// Where starts a lazy query with one condition.
func (r *Repository[T, PT]) Where(column, op string, value any) *Query[T, PT] {
	return r.Query().Where(column, op, value)
}

// Find returns the record with the given primary key.
// A missing or soft-deleted record is (nil, false, nil).
func (r *Repository[T, PT]) Find(ctx context.Context, id any) (*T, bool, error) {
	return r.Query().Find(ctx, id)
}

// Create fills a new record from attrs and inserts it.
func (r *Repository[T, PT]) Create(ctx context.Context, attrs Row) (*T, error) {
	rec := PT(new(T))
	if err := rec.Fill(attrs); err != nil {
		return nil, errors.Join(ErrFill, err)
	}
	if err := r.Save(ctx, (*T)(rec)); err != nil {
		return nil, err
	}
	return (*T)(rec), nil
}

// Save inserts the record when its key is zero and updates it by key otherwise.
func (r *Repository[T, PT]) Save(ctx context.Context, v *T) error {
	if r.meta.Table == "" {
		return ErrNoTable
	}
	rec := PT(v)
	b := rec.base()
	if b.ID == 0 {
		return r.insert(ctx, rec, b)
	}
	return r.update(ctx, rec, b)
}

func (r *Repository[T, PT]) insert(ctx context.Context, rec PT, b *Base) error {
	attrs := rec.Attributes()
	delete(attrs, r.meta.PrimaryKey)

	var ts time.Time
	if r.meta.Timestamps {
		ts = r.now()
		attrs[r.meta.CreatedAtColumn] = ts
		attrs[r.meta.UpdatedAtColumn] = ts
	}

	id, err := r.db.Table(r.meta.Table).Key(r.meta.PrimaryKey).Insert(ctx, attrs)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.meta.Table, err)
	}

	b.ID = id
	if r.meta.Timestamps {
		b.CreatedAt = ts
		b.UpdatedAt = ts
	}
	return nil
}

func (r *Repository[T, PT]) update(ctx context.Context, rec PT, b *Base) error {
	attrs := rec.Attributes()
	delete(attrs, r.meta.PrimaryKey)

	var ts time.Time
	if r.meta.Timestamps {
		ts = r.now()
		delete(attrs, r.meta.CreatedAtColumn)
		attrs[r.meta.UpdatedAtColumn] = ts
	}
	if len(attrs) == 0 {
		return nil
	}

	_, err := r.db.Table(r.meta.Table).Where(r.meta.PrimaryKey, "=", b.ID).Update(ctx, attrs)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.meta.Table, err)
	}
	if r.meta.Timestamps {
		b.UpdatedAt = ts
	}
	return nil
}

// Delete soft-deletes the record when the model uses soft deletes and
// removes the row otherwise.
func (r *Repository[T, PT]) Delete(ctx context.Context, v *T) error {
	if !r.meta.SoftDeletes {
		return r.ForceDelete(ctx, v)
	}

	b := PT(v).base()
	if b.ID == 0 {
		return ErrNotPersisted
	}
	ts := r.now()
	_, err := r.db.Table(r.meta.Table).
		Where(r.meta.PrimaryKey, "=", b.ID).
		Update(ctx, map[string]any{r.meta.DeletedAtColumn: ts})
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", r.meta.Table, err)
	}
	b.DeletedAt = &ts
	return nil
}

// ForceDelete removes the row regardless of soft deletes.
func (r *Repository[T, PT]) ForceDelete(ctx context.Context, v *T) error {
	b := PT(v).base()
	if b.ID == 0 {
		return ErrNotPersisted
	}
	_, err := r.db.Table(r.meta.Table).Where(r.meta.PrimaryKey, "=", b.ID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.meta.Table, err)
	}
	return nil
}

// Restore clears the soft-delete column.
func (r *Repository[T, PT]) Restore(ctx context.Context, v *T) error {
	b := PT(v).base()
	if b.ID == 0 {
		return ErrNotPersisted
	}
	if !r.meta.SoftDeletes {
		return nil
	}
	_, err := r.db.Table(r.meta.Table).
		Where(r.meta.PrimaryKey, "=", b.ID).
		Update(ctx, map[string]any{r.meta.DeletedAtColumn: nil})
	if err != nil {
		return fmt.Errorf("restore %s: %w", r.meta.Table, err)
	}
	b.DeletedAt = nil
	return nil
}
