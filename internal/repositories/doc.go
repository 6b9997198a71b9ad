// Package repositories implements SQLite persistence for the job event journal.
//
// Key Implementations:
//   - [EventRepository] : append-only journal of job transitions, also used for duplicate detection
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
