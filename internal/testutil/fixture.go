// Package testutil provides shared fixtures for f1metrix tests.
package testutil

import (
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed fixture.sql
var fixtureSQL string

// Row counts of the fixture tables.
const (
	AllTimeRows     = 4
	YearlyRows      = 6
	PerformanceRows = 6
	HeadToHeadRows  = 3
	SummaryRows     = 3
)

// WriteResultsDB creates a model results database at path populated with
// the fixture tables.
func WriteResultsDB(path string) error {
	return Exec(path, fixtureSQL)
}

// Exec runs statements against the database at path with a writable
// connection, creating the file if needed.
func Exec(path string, statements ...string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open fixture database: %w", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec fixture statement: %w", err)
		}
	}
	return nil
}

// NewResultsDB writes the fixture database into a per-test temp dir and
// returns its path.
func NewResultsDB(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_results.db")
	if err := WriteResultsDB(path); err != nil {
		t.Fatalf("WriteResultsDB() failed: %v", err)
	}
	return path
}

// CountRows counts rows of a table through a separate writable connection,
// bypassing every read-only layer under test.
func CountRows(t testing.TB, path, tableName string) int64 {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int64
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", tableName)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", tableName, err)
	}
	return n
}
