package table

import (
	"fmt"
)

// ColumnType is the declared kind of a column's values.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	}
	return false
}

// Accepts reports whether v may be stored in a column of type t.
// nil is accepted by every type. Integers are accepted by float columns
// because SQLite returns whole REAL values through INTEGER affinity.
func (t ColumnType) Accepts(v any) bool {
	switch v.(type) {
	case nil:
		return true
	case string:
		return t == TypeString
	case int64:
		return t == TypeInt || t == TypeFloat
	case float64:
		return t == TypeFloat
	case bool:
		return t == TypeBool
	}
	return false
}

// TypeOf returns the column type matching a normalized value.
// Returns false for nil and unsupported values.
func TypeOf(v any) (ColumnType, bool) {
	switch v.(type) {
	case string:
		return TypeString, true
	case int64:
		return TypeInt, true
	case float64:
		return TypeFloat, true
	case bool:
		return TypeBool, true
	}
	return "", false
}

// Column describes one column of a Table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is a materialized tabular result.
type Table struct {
	// Name is the source table name, or empty for query results.
	Name    string
	Columns []Column
	Rows    [][]any

	index map[string]int
}

// New creates a table. Every row must have one value per column.
func New(name string, columns []Column, rows [][]any) (*Table, error) {
	t := &Table{
		Name:    name,
		Columns: columns,
		Rows:    rows,
	}
	if err := t.buildIndex(); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	if t.Rows == nil {
		t.Rows = [][]any{}
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew(name string, columns []Column, rows [][]any) *Table {
	t, err := New(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) buildIndex() error {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		t.index[c.Name] = i
	}
	return nil
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		_ = t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// ColumnNames returns column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has zero rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Get returns the value at row i in the named column.
// Returns nil for unknown columns.
func (t *Table) Get(i int, column string) any {
	c, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	return t.Rows[i][c]
}

// Row is a read-only view over one row of a Table.
type Row struct {
	t *Table
	i int
}

// Index returns the row position in its table.
func (r Row) Index() int {
	return r.i
}

// Get returns the value of the named column, or nil.
func (r Row) Get(column string) any {
	return r.t.Get(r.i, column)
}

// String returns the named column as a string.
// Non-string values are formatted; nil yields "".
func (r Row) String(column string) string {
	switch v := r.Get(column).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return FormatValue(v)
	}
}

// Int returns the named column as an int64.
func (r Row) Int(column string) (int64, bool) {
	switch v := r.Get(column).(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// Float returns the named column as a float64.
func (r Row) Float(column string) (float64, bool) {
	switch v := r.Get(column).(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Values returns the row's values in column order.
// The returned slice must not be modified.
func (r Row) Values() []any {
	return r.t.Rows[r.i]
}
