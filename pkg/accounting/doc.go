// Package accounting records policy evaluation outcomes.
//
// Every evaluated request can produce one accounting record: which policy
// matched, the verdict, and timing. Records are written asynchronously so
// the evaluation path never blocks on storage; a background worker drains a
// buffered channel into the configured storage backend, and records are
// dropped (with an error log) rather than stalling the server when the
// buffer is full.
//
// The storage subpackage persists records in SQLite. The retention
// subpackage prunes old records on a cron schedule.
package accounting
