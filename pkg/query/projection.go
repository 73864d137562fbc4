// Package query builds parameterized SELECT statements over a single table
// whose columns are addressed by field name.
package query

import (
	"fmt"
	"strings"
)

// Table maps field names to qualified column references.
type Table struct {
	schema  string
	name    string
	alias   string
	columns map[string]string
	order   []string
	bare    []string
}

// NewTable describes schema.name aliased as alias.
func NewTable(schema, name, alias string) *Table {
	return &Table{
		schema:  schema,
		name:    name,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Column maps field to a column of the table. Columns are selected in the
// order they are added.
func (t *Table) Column(field, column string) *Table {
	qualified := t.alias + "." + column
	t.columns[field] = qualified
	t.order = append(t.order, qualified)
	t.bare = append(t.bare, column)
	return t
}

// Has reports whether field is mapped.
func (t *Table) Has(field string) bool {
	_, ok := t.columns[field]
	return ok
}

// Ref returns the qualified column for field. It panics on an unmapped
// field since field names are fixed in code.
func (t *Table) Ref(field string) string {
	col, ok := t.columns[field]
	if !ok {
		panic(fmt.Sprintf("query: unmapped field %q on %s", field, t.name))
	}
	return col
}

// From returns "schema.name alias".
func (t *Table) From() string {
	return fmt.Sprintf("%s.%s %s", t.schema, t.name, t.alias)
}

// Select returns the qualified column list.
func (t *Table) Select() string {
	return strings.Join(t.order, ", ")
}

// Returning returns the unqualified column list, in the same order as
// Select, for INSERT and UPDATE ... RETURNING clauses.
func (t *Table) Returning() string {
	return strings.Join(t.bare, ", ")
}
