package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by this package.
const DriverName = "sqlite3_f1metrix_ro"

var registerOnce sync.Once

// registerDriver registers a sqlite3 driver whose connections are query-only.
func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				for _, pragma := range connPragmas {
					if _, err := conn.Exec(pragma, nil); err != nil {
						return fmt.Errorf("failed to execute %q: %w", pragma, err)
					}
				}
				return nil
			},
		})
	})
}

// connPragmas run on every new connection.
var connPragmas = []string{
	"PRAGMA query_only = ON",
	"PRAGMA busy_timeout = 5000",
}

// Store is a read-only handle to the model results database.
// Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the SQLite database at path read-only.
//
// Returns an error wrapping ErrUnavailable if the file does not exist or
// cannot be opened as a database. Open never creates a file.
func Open(path string) (*Store, error) {
	registerDriver()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w: %v", path, ErrUnavailable, err)
	}

	db, err := sql.Open(DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", classify(err))
	}

	// Readers never block each other; a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	return &Store{db: db, path: path}, nil
}

// uriPathEscaper escapes the characters SQLite treats specially in the path
// of a file: URI.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// DSN builds the read-only SQLite URI for path.
func DSN(path string) string {
	u := url.URL{Scheme: "file", Opaque: uriPathEscaper.Replace(path)}
	q := url.Values{}
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// isClosed matches database/sql's unexported "database is closed" error.
func isClosed(err error) bool {
	return errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "sql: database is closed")
}
