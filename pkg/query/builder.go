package query

import (
	"fmt"
	"reflect"
	"strings"
)

// SortField orders by one field. Field is a name mapped on the Table.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSort parses "field,-other" into sort fields. A leading "-" sorts
// descending.
func ParseSort(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: name, Descending: true})
			continue
		}
		fields = append(fields, SortField{Field: part})
	}
	return fields
}

type condition struct {
	clause string
	args   []any
}

// Builder accumulates conditions and ordering for one Table. Clauses hold
// "?" placeholders that are numbered when the statement is built.
type Builder struct {
	table      *Table
	conditions []condition
	sort       []SortField
	fallback   []SortField
}

// NewBuilder starts a query over t. fallback is used when no valid sort
// field is requested.
func NewBuilder(t *Table, fallback ...SortField) *Builder {
	return &Builder{table: t, fallback: fallback}
}

// Equals filters on field = value. Nil values are skipped.
func (b *Builder) Equals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: b.table.Ref(field) + " = ?",
		args:   []any{deref(value)},
	})
	return b
}

// Contains filters on a case-insensitive substring match.
func (b *Builder) Contains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: b.table.Ref(field) + " ILIKE ?",
		args:   []any{"%" + *value + "%"},
	})
	return b
}

// IsNull filters on field being NULL when null is true and NOT NULL when
// false. A nil pointer is skipped.
func (b *Builder) IsNull(field string, null *bool) *Builder {
	if null == nil {
		return b
	}
	op := " IS NOT NULL"
	if *null {
		op = " IS NULL"
	}
	b.conditions = append(b.conditions, condition{clause: b.table.Ref(field) + op})
	return b
}

// Search matches term against any of fields.
func (b *Builder) Search(term *string, fields ...string) *Builder {
	if term == nil || *term == "" || len(fields) == 0 {
		return b
	}
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		clauses[i] = b.table.Ref(f) + " ILIKE ?"
		args[i] = "%" + *term + "%"
	}
	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// OrderBy sets the requested ordering. Unmapped fields are dropped.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	b.sort = b.sort[:0]
	for _, f := range fields {
		if b.table.Has(f.Field) {
			b.sort = append(b.sort, f)
		}
	}
	return b
}

// Count returns a COUNT(*) statement over the current conditions.
func (b *Builder) Count() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table.From(), where), args
}

// Page returns a SELECT for one page of results.
func (b *Builder) Page(page, size int) (string, []any) {
	where, args := b.where()
	return fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.table.Select(), b.table.From(), where, b.orderBy(), size, (page-1)*size,
	), args
}

// ByID returns a SELECT for the row whose field equals id.
func (b *Builder) ByID(field string, id any) (string, []any) {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.table.Select(), b.table.From(), b.table.Ref(field),
	), []any{id}
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.fallback
	}
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.table.Ref(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}
	clauses := make([]string, len(b.conditions))
	var args []any
	for i, c := range b.conditions {
		clause := c.clause
		for _, a := range c.args {
			args = append(args, a)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses[i] = clause
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return rv.Elem().Interface()
	}
	return v
}
