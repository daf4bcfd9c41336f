// Package session provides session management for the rescue simulator.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Per-turn snapshot storage on disk
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager owns the in-memory sessions and implements service.SessionManager.
// FilePersistence stores each session in its own directory:
//
//	<sessions_dir>/<id>/session.json        metadata and scenario
//	<sessions_dir>/<id>/turn_00042.snap.zst zstd-compressed world snapshot
//
// Snapshots are labelled with the number of turns played when they were
// taken. Loading a session restores its latest snapshot; loading a specific
// turn rolls the live session back to it.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence, logger)
//
//	sess, err := manager.Create("", "classic", scenario)
//	turn, err := manager.SaveSnapshot(sess.ID)
//
// A snapshot that fails to decode or validate is reported as an error and
// leaves the live session untouched.
package session
