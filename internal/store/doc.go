// Package store provides durable local state for coven-chat using SQLite.
//
// The only state the client keeps across runs is its correlation id, so the
// store is a single key/value table:
//
//	CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT, updated_at DATETIME)
//
// SQLiteStore is the real implementation (modernc.org/sqlite, no cgo).
// MockStore is an in-memory stand-in for tests.
package store
