package query

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// DefaultKey is the primary key column used by Find and Insert.
const DefaultKey = "id"

// Builder accumulates clauses for one table and materializes exactly one
// statement per terminal call. Chain methods mutate the builder and return it;
// terminal methods only read its state, so calling Get twice runs the same
// statement twice.
//
// Column, table and operator strings are written into the SQL text as given.
// Never pass untrusted input as a column or table name.
type Builder struct {
	err     error
	db      *DB
	table   string
	key     string
	columns []string
	joins   []join
	wheres  []condition
	orders  []order
	limit   int
	offset  int
}

// Table starts a builder for the given table.
func (db *DB) Table(name string) *Builder {
	return &Builder{db: db, table: name, key: DefaultKey}
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = slices.Clone(b.columns)
	c.joins = slices.Clone(b.joins)
	c.wheres = slices.Clone(b.wheres)
	c.orders = slices.Clone(b.orders)
	return &c
}

// TableName returns the table the builder targets.
func (b *Builder) TableName() string {
	return b.table
}

// Key sets the primary key column used by Find and Insert.
func (b *Builder) Key(column string) *Builder {
	if column != "" {
		b.key = column
	}
	return b
}

// Select limits the selected columns. Defaults to "*".
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// Where adds an AND comparison between a column and a bound value.
func (b *Builder) Where(column, op string, value any) *Builder {
	return b.where(and, column, op, value)
}

// OrWhere adds an OR comparison between a column and a bound value.
func (b *Builder) OrWhere(column, op string, value any) *Builder {
	return b.where(or, column, op, value)
}

func (b *Builder) where(conj boolean, column, op string, value any) *Builder {
	normalized, ok := normalizeOperator(op)
	if !ok {
		b.fail(errors.Join(ErrInvalidOperator, errors.New(op)))
		return b
	}
	b.wheres = append(b.wheres, basicCondition{conj: conj, column: column, op: normalized, value: value})
	return b
}

// WhereBetween adds "column BETWEEN low AND high".
func (b *Builder) WhereBetween(column string, low, high any) *Builder {
	b.wheres = append(b.wheres, betweenCondition{conj: and, column: column, low: low, high: high})
	return b
}

// WhereNotBetween adds "column NOT BETWEEN low AND high".
func (b *Builder) WhereNotBetween(column string, low, high any) *Builder {
	b.wheres = append(b.wheres, betweenCondition{conj: and, column: column, low: low, high: high, not: true})
	return b
}

// WhereIn adds "column IN (...)". An empty value list is a usage error
// reported by the terminal call.
func (b *Builder) WhereIn(column string, values ...any) *Builder {
	return b.whereIn(column, values, false)
}

// WhereNotIn adds "column NOT IN (...)".
func (b *Builder) WhereNotIn(column string, values ...any) *Builder {
	return b.whereIn(column, values, true)
}

func (b *Builder) whereIn(column string, values []any, not bool) *Builder {
	if len(values) == 0 {
		b.fail(ErrEmptyWhereIn)
		return b
	}
	b.wheres = append(b.wheres, inCondition{conj: and, column: column, values: slices.Clone(values), not: not})
	return b
}

// WhereNull adds "column IS NULL".
func (b *Builder) WhereNull(column string) *Builder {
	b.wheres = append(b.wheres, nullCondition{conj: and, column: column})
	return b
}

// WhereNotNull adds "column IS NOT NULL".
func (b *Builder) WhereNotNull(column string) *Builder {
	b.wheres = append(b.wheres, nullCondition{conj: and, column: column, not: true})
	return b
}

// OrWhereNull adds "OR column IS NULL".
func (b *Builder) OrWhereNull(column string) *Builder {
	b.wheres = append(b.wheres, nullCondition{conj: or, column: column})
	return b
}

// WhereGroup adds a parenthesized AND group built by fn.
//
//	q.Where("active", "=", true).WhereGroup(func(g *query.Builder) {
//	    g.Where("stock", ">", 0).OrWhere("backorder", "=", true)
//	})
func (b *Builder) WhereGroup(fn func(g *Builder)) *Builder {
	return b.group(and, fn)
}

// OrWhereGroup adds a parenthesized OR group built by fn.
func (b *Builder) OrWhereGroup(fn func(g *Builder)) *Builder {
	return b.group(or, fn)
}

func (b *Builder) group(conj boolean, fn func(g *Builder)) *Builder {
	g := &Builder{db: b.db, table: b.table, key: b.key}
	fn(g)
	if g.err != nil {
		b.fail(g.err)
	}
	if len(g.wheres) > 0 {
		b.wheres = append(b.wheres, groupCondition{conj: conj, conditions: g.wheres})
	}
	return b
}

// Isolate returns a copy whose existing conditions are wrapped in one group,
// so conditions added afterwards constrain all of them.
func (b *Builder) Isolate() *Builder {
	c := b.Clone()
	if len(c.wheres) > 1 {
		c.wheres = []condition{groupCondition{conj: and, conditions: c.wheres}}
	}
	return c
}

// Join adds an INNER JOIN.
func (b *Builder) Join(table, first, op, second string) *Builder {
	return b.join("INNER", table, first, op, second)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table, first, op, second string) *Builder {
	return b.join("LEFT", table, first, op, second)
}

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(table, first, op, second string) *Builder {
	return b.join("RIGHT", table, first, op, second)
}

// FullJoin adds a FULL JOIN.
func (b *Builder) FullJoin(table, first, op, second string) *Builder {
	return b.join("FULL", table, first, op, second)
}

func (b *Builder) join(kind, table, first, op, second string) *Builder {
	normalized, ok := normalizeOperator(op)
	if !ok {
		b.fail(errors.Join(ErrInvalidOperator, errors.New(op)))
		return b
	}
	b.joins = append(b.joins, join{kind: kind, table: table, first: first, op: normalized, second: second})
	return b
}

// OrderBy appends an ORDER BY column. Any direction other than "desc" sorts ascending.
func (b *Builder) OrderBy(column, direction string) *Builder {
	b.orders = append(b.orders, order{column: column, direction: normalizeDirection(direction)})
	return b
}

// Limit caps the number of selected rows. Zero or negative removes the cap.
func (b *Builder) Limit(n int) *Builder {
	b.limit = max(n, 0)
	return b
}

// Offset skips the first n selected rows.
func (b *Builder) Offset(n int) *Builder {
	b.offset = max(n, 0)
	return b
}

// Err returns the first usage error recorded by a chain method.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ToSQL renders the SELECT statement and its bindings without executing it.
func (b *Builder) ToSQL() (string, []any, error) {
	return b.selectSQL(b.limit)
}

func (b *Builder) check() error {
	if b.err != nil {
		return b.err
	}
	if b.table == "" {
		return ErrNoTable
	}
	return nil
}

func (b *Builder) selectSQL(limit int) (string, []any, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}

	w := &writer{}
	w.write("SELECT ")
	if len(b.columns) == 0 {
		w.write("*")
	} else {
		w.write(strings.Join(b.columns, ", "))
	}
	w.write(" FROM ", b.table)
	b.renderJoins(w)
	b.renderWheres(w)

	if len(b.orders) > 0 {
		w.write(" ORDER BY ")
		for i, o := range b.orders {
			if i > 0 {
				w.write(", ")
			}
			w.write(o.column, " ", o.direction)
		}
	}
	if limit > 0 {
		w.write(" LIMIT ", itoa(limit))
	}
	if b.offset > 0 {
		w.write(" OFFSET ", itoa(b.offset))
	}
	return w.String(), w.args, nil
}

func (b *Builder) countSQL() (string, []any, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}
	w := &writer{}
	w.write("SELECT COUNT(*) AS aggregate FROM ", b.table)
	b.renderJoins(w)
	b.renderWheres(w)
	return w.String(), w.args, nil
}

func (b *Builder) insertSQL(values map[string]any, returning bool) (string, []any, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, ErrEmptyValues
	}

	columns := sortedKeys(values)
	w := &writer{}
	w.write("INSERT INTO ", b.table, " (", strings.Join(columns, ", "), ") VALUES ")
	row := make([]any, 0, len(columns))
	for _, c := range columns {
		row = append(row, values[c])
	}
	w.bindList(row)
	if returning {
		w.write(" RETURNING ", b.key)
	}
	return w.String(), w.args, nil
}

func (b *Builder) updateSQL(values map[string]any) (string, []any, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, ErrEmptyValues
	}

	w := &writer{}
	w.write("UPDATE ", b.table, " SET ")
	for i, c := range sortedKeys(values) {
		if i > 0 {
			w.write(", ")
		}
		w.write(c, " = ")
		w.bind(values[c])
	}
	b.renderWheres(w)
	return w.String(), w.args, nil
}

func (b *Builder) deleteSQL() (string, []any, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}
	w := &writer{}
	w.write("DELETE FROM ", b.table)
	b.renderWheres(w)
	return w.String(), w.args, nil
}

func (b *Builder) renderJoins(w *writer) {
	for _, j := range b.joins {
		j.render(w)
	}
}

func (b *Builder) renderWheres(w *writer) {
	if len(b.wheres) == 0 {
		return
	}
	w.write(" WHERE ")
	renderConditions(w, b.wheres)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get runs the SELECT and returns every row. No rows is an empty slice.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	sqlText, args, err := b.selectSQL(b.limit)
	if err != nil {
		return nil, err
	}
	return b.db.query(ctx, sqlText, args)
}

// First runs the SELECT with an implicit LIMIT 1.
// The builder's own limit is left untouched.
func (b *Builder) First(ctx context.Context) (Row, bool, error) {
	sqlText, args, err := b.selectSQL(1)
	if err != nil {
		return nil, false, err
	}
	rows, err := b.db.query(ctx, sqlText, args)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Find fetches one row by primary key on a copy of the builder.
func (b *Builder) Find(ctx context.Context, id any) (Row, bool, error) {
	return b.Clone().Where(b.key, "=", id).First(ctx)
}

// Count returns the number of rows matching the builder's conditions.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	sqlText, args, err := b.countSQL()
	if err != nil {
		return 0, err
	}
	rows, err := b.db.query(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, _ := rows[0].Int64("aggregate")
	return n, nil
}

// Exists reports whether at least one row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	_, ok, err := b.Clone().Select("1 AS present").First(ctx)
	return ok, err
}

// Insert writes one row and returns its generated primary key.
// Columns are written in sorted order.
func (b *Builder) Insert(ctx context.Context, values map[string]any) (int64, error) {
	returning := b.db.dialect.returning()
	sqlText, args, err := b.insertSQL(values, returning)
	if err != nil {
		return 0, err
	}

	if returning {
		rows, err := b.db.query(ctx, sqlText, args)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		id, _ := rows[0].Int64(b.key)
		return id, nil
	}

	res, err := b.db.exec(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &QueryError{SQL: sqlText, Args: args, Err: err}
	}
	return id, nil
}

// Update applies values to every matching row and returns the affected count.
// SET bindings precede WHERE bindings.
func (b *Builder) Update(ctx context.Context, values map[string]any) (int64, error) {
	sqlText, args, err := b.updateSQL(values)
	if err != nil {
		return 0, err
	}
	return b.db.affected(ctx, sqlText, args)
}

// Delete removes every matching row and returns the affected count.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	sqlText, args, err := b.deleteSQL()
	if err != nil {
		return 0, err
	}
	return b.db.affected(ctx, sqlText, args)
}

// InsertRow writes one row without reading back a generated key.
// Use it for tables that have no key column, such as pivot tables.
func (b *Builder) InsertRow(ctx context.Context, values map[string]any) error {
	sqlText, args, err := b.insertSQL(values, false)
	if err != nil {
		return err
	}
	_, err = b.db.exec(ctx, sqlText, args)
	return err
}
