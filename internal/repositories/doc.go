// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [SessionRepository] : Signed-in identity provider session, one per app client
//   - [ImportJobRepository] : Catalog import history with status tracking
//
// Import jobs carry sequence numbers for stable, human-readable ordering (import #3)
// independent of UUIDs and creation timestamps. The [NextSequence] function atomically
// increments per-table sequence counters in dedicated sequence tables.
package repositories
