package model

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/dmitrymomot/storefront/pkg/query"
)

// Relations run a fresh query on every call; nothing is cached on the parent.

// HasManyQuery returns a lazy query for the children of parent whose
// foreignKey column equals the parent's localKey (the primary key by default).
func HasManyQuery[C any, PC ptr[C]](db *query.DB, parent Record, foreignKey string, localKey ...string) *Query[C, PC] {
	return newQuery[C, PC](db).Where(foreignKey, "=", keyValue(parent, first(localKey)))
}

// HasMany loads the children of parent.
//
//	photos, err := model.HasMany[ProductPhoto](ctx, db, product, "product_id")
func HasMany[C any, PC ptr[C]](ctx context.Context, db *query.DB, parent Record, foreignKey string, localKey ...string) ([]*C, error) {
	return HasManyQuery[C, PC](db, parent, foreignKey, localKey...).Get(ctx)
}

// HasOne loads the first child of parent.
func HasOne[C any, PC ptr[C]](ctx context.Context, db *query.DB, parent Record, foreignKey string, localKey ...string) (*C, bool, error) {
	return HasManyQuery[C, PC](db, parent, foreignKey, localKey...).First(ctx)
}

// BelongsTo loads the owner referenced by child's foreignKey column.
// An empty foreignKey means the owner table in singular plus "_id", so
// users gives user_id and categories gives category_id.
// A NULL or zero foreign key is (nil, false, nil) without a query.
func BelongsTo[P any, PP ptr[P]](ctx context.Context, db *query.DB, child Record, foreignKey string, ownerKey ...string) (*P, bool, error) {
	if foreignKey == "" {
		foreignKey = ForeignKey(PP(new(P)).Meta().normalize().Table)
	}
	v := keyValue(child, foreignKey)
	if isZeroKey(v) {
		return nil, false, nil
	}
	q := newQuery[P, PP](db)
	key := first(ownerKey)
	if key == "" {
		return q.Find(ctx, v)
	}
	return q.Where(key, "=", v).First(ctx)
}

// Pivot describes a many-to-many join table.
type Pivot struct {
	// Table is the join table, e.g. "order_product".
	Table string
	// ForeignPivotKey references the parent, e.g. "order_id".
	ForeignPivotKey string
	// RelatedPivotKey references the related record, e.g. "product_id".
	RelatedPivotKey string
	// ParentKey is the parent column ForeignPivotKey points at. Defaults to the primary key.
	ParentKey string
	// RelatedKey is the related column RelatedPivotKey points at. Defaults to the primary key.
	RelatedKey string
}

func (p Pivot) validate() error {
	if p.Table == "" || p.ForeignPivotKey == "" || p.RelatedPivotKey == "" {
		return ErrInvalidPivot
	}
	return nil
}

// BelongsToMany loads the records related to parent through a join table.
// The join rows are read first; when there are none the related table is not
// queried. Each returned record carries the extra columns of its own join row
// in Base.Pivot, one record per join row, in join-row order.
//
// Both reads run in one transaction when db can begin one, so they observe a
// consistent snapshot under the isolation level configured on db.
func BelongsToMany[R any, PR ptr[R]](ctx context.Context, db *query.DB, parent Record, p Pivot) ([]*R, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !db.CanBegin() {
		return belongsToMany[R, PR](ctx, db, parent, p)
	}

	var result []*R
	err := db.WithTx(ctx, func(tx *query.DB) error {
		var err error
		result, err = belongsToMany[R, PR](ctx, tx, parent, p)
		return err
	})
	return result, err
}

func belongsToMany[R any, PR ptr[R]](ctx context.Context, db *query.DB, parent Record, p Pivot) ([]*R, error) {
	pivots, err := db.Table(p.Table).
		Where(p.ForeignPivotKey, "=", keyValue(parent, p.ParentKey)).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(pivots) == 0 {
		return []*R{}, nil
	}

	ids := make([]any, 0, len(pivots))
	seen := make(map[string]struct{}, len(pivots))
	for _, row := range pivots {
		k := fmt.Sprint(row[p.RelatedPivotKey])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ids = append(ids, row[p.RelatedPivotKey])
	}

	q := newQuery[R, PR](db)
	relatedKey := p.RelatedKey
	if relatedKey == "" {
		relatedKey = q.meta.PrimaryKey
	}
	related, err := q.WhereIn(q.meta.column(relatedKey), ids...).Builder().Get(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]Row, len(related))
	for _, row := range related {
		byKey[fmt.Sprint(row[relatedKey])] = row
	}

	result := make([]*R, 0, len(pivots))
	for _, pivot := range pivots {
		row, ok := byKey[fmt.Sprint(pivot[p.RelatedPivotKey])]
		if !ok {
			// related row is soft deleted or gone
			continue
		}
		rec, err := hydrate[R, PR](row)
		if err != nil {
			return nil, err
		}
		extra := maps.Clone(pivot)
		delete(extra, p.ForeignPivotKey)
		delete(extra, p.RelatedPivotKey)
		PR(rec).base().Pivot = extra
		result = append(result, rec)
	}
	return result, nil
}

// Attach inserts a join row linking parent to relatedID, with optional extra columns.
func Attach(ctx context.Context, db *query.DB, parent Record, p Pivot, relatedID any, extra Row) error {
	if err := p.validate(); err != nil {
		return err
	}
	parentID := keyValue(parent, p.ParentKey)
	if isZeroKey(parentID) {
		return ErrNotPersisted
	}

	values := make(map[string]any, len(extra)+2)
	maps.Copy(values, extra)
	values[p.ForeignPivotKey] = parentID
	values[p.RelatedPivotKey] = relatedID
	return db.Table(p.Table).InsertRow(ctx, values)
}

// Detach removes the join rows linking parent to the given related ids,
// or every join row of parent when no ids are given.
func Detach(ctx context.Context, db *query.DB, parent Record, p Pivot, relatedIDs ...any) (int64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	b := db.Table(p.Table).Where(p.ForeignPivotKey, "=", keyValue(parent, p.ParentKey))
	if len(relatedIDs) > 0 {
		b.WhereIn(p.RelatedPivotKey, relatedIDs...)
	}
	return b.Delete(ctx)
}

// ForeignKey derives the conventional foreign key column for table.
func ForeignKey(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		table = table[i+1:]
	}
	switch {
	case strings.HasSuffix(table, "ies"):
		table = strings.TrimSuffix(table, "ies") + "y"
	case strings.HasSuffix(table, "sses"), strings.HasSuffix(table, "shes"), strings.HasSuffix(table, "ches"), strings.HasSuffix(table, "xes"):
		table = strings.TrimSuffix(table, "es")
	case strings.HasSuffix(table, "ss"):
	case strings.HasSuffix(table, "s"):
		table = strings.TrimSuffix(table, "s")
	}
	return table + "_id"
}

func first(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func isZeroKey(v any) bool {
	switch k := v.(type) {
	case nil:
		return true
	case int64:
		return k == 0
	case int:
		return k == 0
	case *int64:
		return k == nil || *k == 0
	case string:
		return k == ""
	}
	return false
}
