package table

import (
	"cmp"
	"fmt"
	"slices"
)

// derive copies t's shape with a new row set. Rows are shared, not copied.
func (t *Table) derive(rows [][]any) *Table {
	out := &Table{
		Name:    t.Name,
		Columns: t.Columns,
		Rows:    rows,
		index:   t.index,
	}
	if out.index == nil {
		_ = out.buildIndex()
	}
	return out
}

// Head returns the first n rows. n larger than Len returns every row.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.derive(slices.Clone(t.Rows[:n]))
}

// Filter returns the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([][]any, 0, len(t.Rows))
	for i := range t.Rows {
		if keep(t.Row(i)) {
			rows = append(rows, t.Rows[i])
		}
	}
	return t.derive(rows)
}

// SortBy returns the rows stably ordered by the named column.
// Nulls sort last in both directions.
func (t *Table) SortBy(column string, desc bool) (*Table, error) {
	c, ok := t.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	rows := slices.Clone(t.Rows)
	slices.SortStableFunc(rows, func(a, b []any) int {
		av, bv := a[c], b[c]
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		r := Compare(av, bv)
		if desc {
			return -r
		}
		return r
	})
	return t.derive(rows), nil
}

// Distinct returns the distinct non-null values of a column in first-seen order.
func (t *Table) Distinct(column string) []any {
	c, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	seen := make(map[any]struct{})
	var out []any
	for _, row := range t.Rows {
		v := row[c]
		if v == nil {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// WithColumn returns a table with col computed by fn for each row.
// An existing column of the same name is replaced in place; otherwise col
// is appended.
func (t *Table) WithColumn(col Column, fn func(Row) any) *Table {
	pos, replace := t.ColumnIndex(col.Name)

	columns := slices.Clone(t.Columns)
	if replace {
		columns[pos] = col
	} else {
		pos = len(columns)
		columns = append(columns, col)
	}

	rows := make([][]any, len(t.Rows))
	for i, src := range t.Rows {
		row := make([]any, len(columns))
		copy(row, src)
		row[pos] = fn(t.Row(i))
		rows[i] = row
	}

	out := &Table{Name: t.Name, Columns: columns, Rows: rows}
	_ = out.buildIndex()
	return out
}

// Compare orders two non-null values. Numbers compare numerically across
// int64 and float64; values of different kinds order by kind name.
func Compare(a, b any) int {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmp.Compare(av, bv)
		case float64:
			return cmp.Compare(float64(av), bv)
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmp.Compare(av, bv)
		case int64:
			return cmp.Compare(av, float64(bv))
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}
