package query

import (
	"strconv"
	"strings"
)

// writer accumulates statement text and bindings in one pass.
// bind is the only way a value enters a statement, so every "?" in the
// text has exactly one argument at the same position.
type writer struct {
	sb   strings.Builder
	args []any
}

func (w *writer) write(parts ...string) {
	for _, p := range parts {
		w.sb.WriteString(p)
	}
}

func (w *writer) bind(v any) {
	w.sb.WriteByte('?')
	w.args = append(w.args, v)
}

func (w *writer) bindList(values []any) {
	w.sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.bind(v)
	}
	w.sb.WriteByte(')')
}

func (w *writer) String() string {
	return w.sb.String()
}

// boolean joins a condition to the one before it.
type boolean string

const (
	and boolean = "AND"
	or  boolean = "OR"
)

// condition is one WHERE predicate.
type condition interface {
	joiner() boolean
	render(w *writer)
}

type basicCondition struct {
	value  any
	conj   boolean
	column string
	op     string
}

func (c basicCondition) joiner() boolean { return c.conj }

func (c basicCondition) render(w *writer) {
	w.write(c.column, " ", c.op, " ")
	w.bind(c.value)
}

type betweenCondition struct {
	low    any
	high   any
	conj   boolean
	column string
	not    bool
}

func (c betweenCondition) joiner() boolean { return c.conj }

func (c betweenCondition) render(w *writer) {
	w.write(c.column)
	if c.not {
		w.write(" NOT")
	}
	w.write(" BETWEEN ")
	w.bind(c.low)
	w.write(" AND ")
	w.bind(c.high)
}

type inCondition struct {
	conj   boolean
	column string
	values []any
	not    bool
}

func (c inCondition) joiner() boolean { return c.conj }

func (c inCondition) render(w *writer) {
	w.write(c.column)
	if c.not {
		w.write(" NOT")
	}
	w.write(" IN ")
	w.bindList(c.values)
}

type nullCondition struct {
	conj   boolean
	column string
	not    bool
}

func (c nullCondition) joiner() boolean { return c.conj }

func (c nullCondition) render(w *writer) {
	if c.not {
		w.write(c.column, " IS NOT NULL")
		return
	}
	w.write(c.column, " IS NULL")
}

type groupCondition struct {
	conj       boolean
	conditions []condition
}

func (c groupCondition) joiner() boolean { return c.conj }

func (c groupCondition) render(w *writer) {
	w.write("(")
	renderConditions(w, c.conditions)
	w.write(")")
}

func renderConditions(w *writer, conds []condition) {
	for i, c := range conds {
		if i > 0 {
			w.write(" ", string(c.joiner()), " ")
		}
		c.render(w)
	}
}

type join struct {
	kind   string
	table  string
	first  string
	op     string
	second string
}

func (j join) render(w *writer) {
	w.write(" ", j.kind, " JOIN ", j.table, " ON ", j.first, " ", j.op, " ", j.second)
}

type order struct {
	column    string
	direction string
}

// operators allowed between a column and a bound value.
var operators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
	"LIKE": {}, "NOT LIKE": {}, "ILIKE": {},
}

func normalizeOperator(op string) (string, bool) {
	op = strings.ToUpper(strings.Join(strings.Fields(op), " "))
	_, ok := operators[op]
	return op, ok
}

func normalizeDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "desc") {
		return "DESC"
	}
	return "ASC"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
