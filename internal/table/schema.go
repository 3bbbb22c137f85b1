package table

import (
	"fmt"
	"strings"
)

// SchemaColumn is one declared column of a known table.
type SchemaColumn struct {
	Name     string
	Type     ColumnType
	Optional bool
}

// Schema declares the expected shape of a named table.
// Columns not listed in the schema are allowed and left unchecked.
type Schema struct {
	Table       string
	Description string
	Columns     []SchemaColumn
}

// Column returns the declared column with the given name.
func (s Schema) Column(name string) (SchemaColumn, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return SchemaColumn{}, false
}

// SchemaError reports a table whose contents drift from its declared schema.
type SchemaError struct {
	Table   string
	Column  string
	Row     int // -1 when not row-specific
	Message string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %q", e.Table)
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Validate checks that t carries every required column and that every value
// in a declared column fits the declared type.
func (s Schema) Validate(t *Table) error {
	for _, sc := range s.Columns {
		c, ok := t.ColumnIndex(sc.Name)
		if !ok {
			if sc.Optional {
				continue
			}
			return &SchemaError{Table: s.Table, Column: sc.Name, Row: -1, Message: "required column missing"}
		}
		for i, row := range t.Rows {
			if !sc.Type.Accepts(row[c]) {
				return &SchemaError{
					Table:   s.Table,
					Column:  sc.Name,
					Row:     i,
					Message: fmt.Sprintf("value %v (%T) is not %s", row[c], row[c], sc.Type),
				}
			}
		}
	}
	return nil
}

// Conform returns t with each declared column's type set from the schema.
// Validate must have succeeded first.
func (s Schema) Conform(t *Table) *Table {
	changed := false
	columns := make([]Column, len(t.Columns))
	copy(columns, t.Columns)
	for i, c := range columns {
		if sc, ok := s.Column(c.Name); ok && sc.Type != c.Type {
			columns[i].Type = sc.Type
			changed = true
		}
	}
	if !changed {
		return t
	}
	out := &Table{Name: t.Name, Columns: columns, Rows: t.Rows}
	_ = out.buildIndex()
	return out
}
