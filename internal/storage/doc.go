// Package storage keeps the delivery journal: an append-only record of every
// message the bot delivered.
//
// Drivers:
//   - "file": JSON Lines file
//   - "sqlite": SQLite database (modernc.org/sqlite, no cgo)
//
// The journal is an operator audit trail. Nothing in the poll loop reads it
// back, so it never restores cursor or dedup state after a restart.
package storage
