// Package journal is the SQLite-backed attempt log.
//
// Every final attempt result a session produces is appended as one Entry.
// The journal observes play; sessions are never restored from it.
//
// # Ordering
//
// Entries carry the session's logical seq. All reads order by
// seq ASC, id ASC so results are identical however fast the clock ran.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: every entry belongs to a session row
//
// Open("") or Open(":memory:") gives a private in-memory journal.
package journal
