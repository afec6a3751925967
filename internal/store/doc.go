// Package store provides SQLite-backed storage for one drive of facts.
//
// A Drive is an append-only table of immutable facts:
//   - Ordinals are assigned by SQLite (AUTOINCREMENT) and never reused
//   - Facts are only ever inserted; there is no UPDATE path
//   - Soft deletion is a new fact with the removed flag set
//
// # Query Shapes
//
// Each drive prepares one statement per queryir.Shape when it opens and
// reuses it for every lookup of that shape. Statement use is serialized by a
// per-drive mutex, so a *Drive is safe for concurrent use.
//
// Every shape except the full scan and the most-recent lookup returns rows
// ordered by timestamp DESC, ordinal DESC.
//
// # Database Configuration
//
//   - WAL mode for on-disk drives
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - user_version stamps the schema version
//
// Two engines are supported: "sqlite3" (github.com/mattn/go-sqlite3, cgo)
// and "sqlite" (modernc.org/sqlite, pure Go). Both read and write the same
// file format.
package store
