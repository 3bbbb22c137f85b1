// Package store provides read-only access to the SQLite database of model
// outputs.
//
// The database is produced upstream and is never written by f1metrix. Every
// connection is opened read-only twice over:
//
//   - the DSN uses SQLite URI mode=ro, so the file is opened without write access
//   - the connect hook sets PRAGMA query_only = ON
//
// Either layer alone rejects INSERT, UPDATE, DELETE and DDL. Callers that hand
// user-supplied SQL to the store still apply their own policy first; these
// layers are the backstop.
//
// # Errors
//
// Driver errors are classified into two sentinels so callers can branch with
// errors.Is:
//
//   - ErrTableNotFound: the named table or view does not exist
//   - ErrUnavailable: the database file is missing, unreadable, or closed
//
// Anything else (syntax errors, unknown columns) is returned wrapped as-is.
package store
