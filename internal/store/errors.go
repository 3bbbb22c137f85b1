package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrTableNotFound indicates the requested table or view does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrUnavailable indicates the database cannot be reached.
	ErrUnavailable = errors.New("database unavailable")
)

// classify wraps driver errors with the matching sentinel.
// Errors that match neither sentinel are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || isClosed(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrIoErr, sqlite3.ErrPerm:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		case sqlite3.ErrError:
			if strings.HasPrefix(se.Error(), "no such table") {
				return fmt.Errorf("%w: %w", ErrTableNotFound, err)
			}
		}
	}
	return err
}

// EngineMessage returns the SQLite engine's own message for err.
// Falls back to err.Error() for non-driver errors.
func EngineMessage(err error) string {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
