// Package session provides session management for pushbox.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//   - An optional append-only move journal
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns one engine, built once when the session is created, and
// lives in memory only.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Journal:
//
// FileJournal writes one JSON line per event to <dir>/<session>.jsonl. The
// journal is a record for later analysis; it is never read back into a
// running session, so a restarted server always starts fresh grids.
//
// Usage:
//
//	journal, err := session.NewFileJournal("journal")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithJournal(journal)
//
//	sess, err := manager.Create("", profile)
//	m := sess.Engine.Move("a")
//	manager.Record(sess.ID, m)
package session
