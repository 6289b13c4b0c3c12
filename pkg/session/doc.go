// Package session tracks active access sessions and backs the
// Simultaneous-Use virtual attribute.
//
// The store persists one row per live session in SQLite so counts survive a
// restart. Sessions open when an access request is granted and close on the
// matching accounting stop; stale rows left by crashed clients are swept by
// Cleanup.
//
// SimultaneousUseComparator adapts the store to the pair-comparator registry:
// a policy comparing Simultaneous-Use against a limit is answered by counting
// the user's live sessions.
package session
