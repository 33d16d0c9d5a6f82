// Package store provides SQLite-backed local storage for karmapos.
//
// The store holds three collections:
//   - invoices: issued sales, keyed by id, indexed by date
//   - items: catalog entries, keyed by id, indexed by section
//   - appState: JSON values keyed by string (counters, settings, sections)
//
// # Semantics
//
//   - Add fails with ErrExists when the key is taken (ON CONFLICT DO NOTHING
//     plus a RowsAffected check, never an overwrite)
//   - Put is an upsert
//   - Delete of a missing key is not an error
//   - Reads of a missing key return ErrNotFound; callers treat it as
//     "use the default"
//   - Invoice pages are ordered by date DESC, id DESC
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection: the app is a single writer and the
//     store does not coordinate concurrent callers
package store
