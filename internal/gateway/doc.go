// Package gateway runs free-text queries typed by end users.
//
// This is the only place an untrusted string reaches the database. Two
// layers stand between it and the data:
//
//  1. A syntactic policy. The trimmed text must begin, case-insensitively,
//     with SELECT. Anything else is rejected with NOT_READ_ONLY before the
//     database sees it.
//  2. The connection. The store opens the file with mode=ro, sets
//     PRAGMA query_only on every connection, and runs the query inside a
//     read-only transaction that is always rolled back.
//
// The policy is a prefix check, not a parser. It accepts text such as
// "SELECT 1; DELETE FROM t" because the text begins with SELECT, and the
// SQLite driver walks every statement in such a payload and runs the last
// one. Only the connection layer stops the DELETE. The policy also rejects
// read-only statements that start with WITH. gateway_test.go pins both
// behaviors.
//
// Queries have no timeout and no row limit. Results are never cached.
package gateway
