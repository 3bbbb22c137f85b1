// Package table provides the typed tabular result shared by every layer of
// f1metrix.
//
// A Table is an ordered list of typed columns plus rows of values in column
// order. Values are limited to nil, string, int64, float64 and bool, which is
// exactly the set the SQLite driver produces after normalization.
//
// Tables are treated as immutable once built. Every derivation (Head, Filter,
// SortBy, WithColumn, DeriveDisplayName) returns a new Table and leaves its
// input untouched, so a cached Table can be shared by concurrent readers.
package table
