// Package oplog persists a journal of organizing runs and per-file outcomes
// in SQLite, so failed transfers can be inspected after the fact.
package oplog
