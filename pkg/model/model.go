package model

import (
	"maps"
	"time"

	"github.com/dmitrymomot/storefront/pkg/query"
)

// Row is a column-to-value map as returned by the query builder.
type Row = query.Row

// Meta describes how a record maps to its table.
type Meta struct {
	Table           string
	PrimaryKey      string
	DeletedAtColumn string
	CreatedAtColumn string
	UpdatedAtColumn string
	SoftDeletes     bool
	Timestamps      bool
}

func (m Meta) normalize() Meta {
	if m.PrimaryKey == "" {
		m.PrimaryKey = "id"
	}
	if m.DeletedAtColumn == "" {
		m.DeletedAtColumn = "deleted_at"
	}
	if m.CreatedAtColumn == "" {
		m.CreatedAtColumn = "created_at"
	}
	if m.UpdatedAtColumn == "" {
		m.UpdatedAtColumn = "updated_at"
	}
	return m
}

func (m Meta) column(name string) string {
	return m.Table + "." + name
}

// Base carries the columns every record shares. Embed it in each model struct:
//
//	type Product struct {
//	    model.Base
//	    Name  string
//	    Price float64
//	}
//
// A zero ID means the record has not been inserted yet.
type Base struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	// Pivot holds the extra join-table columns when the record was loaded
	// through BelongsToMany. It is never persisted.
	Pivot Row   `json:"pivot,omitempty"`
	ID    int64 `json:"id"`
}

func (b *Base) base() *Base { return b }

// Exists reports whether the record has been inserted.
func (b *Base) Exists() bool {
	return b.ID != 0
}

// Trashed reports whether the record is soft deleted.
func (b *Base) Trashed() bool {
	return b.DeletedAt != nil
}

func (b *Base) fill(meta Meta, row Row) {
	b.ID, _ = row.Int64(meta.PrimaryKey)
	if meta.Timestamps {
		b.CreatedAt, _ = row.Time(meta.CreatedAtColumn)
		b.UpdatedAt, _ = row.Time(meta.UpdatedAtColumn)
	}
	if meta.SoftDeletes {
		b.DeletedAt = TimePtr(row, meta.DeletedAtColumn)
	}
}

// Record is implemented by model structs. Attributes returns the persisted
// columns other than the primary key and the managed timestamp columns;
// Fill copies a result row into the struct's own fields.
//
// Only types embedding Base satisfy Record.
type Record interface {
	Meta() Meta
	Attributes() map[string]any
	Fill(row Row) error
	base() *Base
}

// ptr constrains a type parameter to *T implementing Record, so generic
// functions can allocate a T and use it as a Record.
type ptr[T any] interface {
	*T
	Record
}

func hydrate[T any, PT ptr[T]](row Row) (*T, error) {
	rec := PT(new(T))
	meta := rec.Meta().normalize()
	rec.base().fill(meta, row)
	if err := rec.Fill(row); err != nil {
		return nil, err
	}
	return (*T)(rec), nil
}

func hydrateAll[T any, PT ptr[T]](rows []Row) ([]*T, error) {
	result := make([]*T, 0, len(rows))
	for _, row := range rows {
		rec, err := hydrate[T, PT](row)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// keyValue returns the record's value for column, reading the primary key
// from Base and every other column from Attributes.
func keyValue(rec Record, column string) any {
	meta := rec.Meta().normalize()
	if column == "" || column == meta.PrimaryKey {
		return rec.base().ID
	}
	return rec.Attributes()[column]
}

// Key returns the record's primary key.
func Key(rec Record) int64 {
	return rec.base().ID
}

// PivotOf returns a copy of the join-table columns attached by BelongsToMany.
func PivotOf(rec Record) Row {
	return maps.Clone(rec.base().Pivot)
}
