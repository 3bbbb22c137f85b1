package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/f1metrix/internal/table"
)

// TableInfo describes one table or view in the database.
type TableInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // "table" or "view"
}

// Tables lists user tables and views ordered by name.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", classify(err))
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		var ti TableInfo
		if err := rows.Scan(&ti.Name, &ti.Type); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		tables = append(tables, ti)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", classify(err))
	}
	return tables, nil
}

// lookupTable returns the sqlite_master type of name, or ErrTableNotFound.
func (s *Store) lookupTable(ctx context.Context, name string) (string, error) {
	var kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ?
	`, name).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("lookup table %s: %w", name, classify(err))
	}
	return kind, nil
}

// TableExists reports whether a table or view with the given name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	_, err := s.lookupTable(ctx, name)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// RowCount returns the number of rows in a table or view.
func (s *Store) RowCount(ctx context.Context, name string) (int64, error) {
	if _, err := s.lookupTable(ctx, name); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, classify(err))
	}
	return n, nil
}

// ReadTable reads every row of a table or view.
// Tables are read in rowid order; views in the order SQLite returns them.
//
// Returns an error wrapping ErrTableNotFound if name does not exist.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	kind, err := s.lookupTable(ctx, name)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + quoteIdent(name)
	if kind == "table" {
		query += " ORDER BY rowid ASC"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, classify(err))
	}
	defer rows.Close()

	t, err := scanTable(name, rows)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	return t, nil
}

// ReadQuery runs a parameterized read query and materializes the result.
func (s *Store) ReadQuery(ctx context.Context, query string, args ...any) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", classify(err))
	}
	defer rows.Close()

	t, err := scanTable("", rows)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return t, nil
}

// QueryReadOnly runs query inside a read-only transaction that is always
// rolled back. Errors are the driver's, classified but not re-worded.
func (s *Store) QueryReadOnly(ctx context.Context, query string) (*table.Table, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only, nothing to keep

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	return scanTable("", rows)
}

// scanTable materializes rows into a typed table.
func scanTable(name string, rows *sql.Rows) (*table.Table, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", classify(err))
	}

	columns := make([]table.Column, len(colTypes))
	declared := make([]bool, len(colTypes))
	for i, ct := range colTypes {
		columns[i].Name = ct.Name()
		if typ, ok := affinity(ct.DatabaseTypeName()); ok {
			columns[i].Type = typ
			declared[i] = true
		}
	}

	data := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(data), err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	// Columns without a declared type take the kind of their first value.
	for i := range columns {
		if declared[i] {
			continue
		}
		columns[i].Type = table.TypeString
		for _, row := range data {
			if typ, ok := table.TypeOf(row[i]); ok {
				columns[i].Type = typ
				break
			}
		}
	}

	// SQLite affinity is advisory; widen a declared int column that holds floats.
	for i := range columns {
		if columns[i].Type != table.TypeInt {
			continue
		}
		for _, row := range data {
			if _, isFloat := row[i].(float64); isFloat {
				columns[i].Type = table.TypeFloat
				break
			}
		}
	}

	return table.New(name, columns, data)
}

// affinity maps a declared SQLite column type to a column type following
// SQLite's affinity rules.
func affinity(decl string) (table.ColumnType, bool) {
	d := strings.ToUpper(decl)
	switch {
	case d == "":
		return "", false
	case strings.Contains(d, "INT"):
		return table.TypeInt, true
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return table.TypeString, true
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return table.TypeFloat, true
	case strings.Contains(d, "BOOL"):
		return table.TypeBool, true
	}
	return "", false
}

// normalize converts driver values into the table value set.
func normalize(v any) any {
	switch val := v.(type) {
	case nil, string, int64, float64, bool:
		return val
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}
