// Package cache implements the query cache that sits between page handlers
// and the read-only results database.
//
// The first request for a table (or for a distinct parameterized query)
// reads it from the source, derives the full_name display column, validates
// it against the declared schema, and stores the result. Every later request
// for the same key returns the identical *table.Table without touching the
// source.
//
// # Invariants
//
//   - Failed loads are never cached. The caller gets a nil table and a
//     *DataLoadError, which is distinct from a successful zero-row table.
//   - Display names are derived before a result is stored, so every reader
//     sees the same augmented table.
//   - Query keys include the trimmed SQL text and every bound argument with
//     its type, so different bindings never share an entry.
//   - Entries live until Invalidate or Clear. The source tables are static
//     snapshots, so nothing expires on its own.
//
// Concurrent misses for the same key are collapsed into a single source read.
package cache
