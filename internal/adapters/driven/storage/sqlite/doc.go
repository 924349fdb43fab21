// Package sqlite persists session vector indexes with modernc.org/sqlite, a
// pure Go SQLite implementation that requires no CGO.
//
// Each session owns one database file at <root>/models/<session-id>/index.db
// holding the embedding identity, the dimensionality and every chunk with its
// vector in insertion order. Saving replaces the whole index inside a single
// transaction.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
package sqlite
