package table

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

// FormatValue renders a value for human-readable output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// Strings returns every row as formatted strings, for text renderers.
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

type tableJSON struct {
	Table    string   `json:"table,omitempty"`
	Columns  []Column `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// MarshalJSON encodes rows as arrays in column order. Non-finite floats,
// which JSON cannot represent, are encoded as null.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := finiteRows(t.Rows)
	if rows == nil {
		rows = [][]any{}
	}
	columns := t.Columns
	if columns == nil {
		columns = []Column{}
	}
	return json.Marshal(tableJSON{
		Table:    t.Name,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	})
}

// finiteRows returns rows with NaN and ±Inf replaced by nil. The input is
// never modified; rows are copied only when a replacement is needed.
func finiteRows(rows [][]any) [][]any {
	out := rows
	copied := false
	for i, row := range rows {
		var fixed []any
		for j, v := range row {
			if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
				if fixed == nil {
					fixed = slices.Clone(row)
				}
				fixed[j] = nil
			}
		}
		if fixed == nil {
			continue
		}
		if !copied {
			out = slices.Clone(rows)
			copied = true
		}
		out[i] = fixed
	}
	return out
}
