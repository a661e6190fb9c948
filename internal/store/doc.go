// Package store provides snapshot access for births runs.
//
// A snapshot is a read-only view of one locale's dataset as it existed at one
// tracked release. Resolution code only sees the Source and Snapshot
// interfaces; this package supplies two implementations:
//
//   - Store: SQLite-backed, one row per (version, locale, item key)
//   - Memory: in-process maps, used by tests and by fixture tooling
//
// # Snapshot Semantics
//
// Three situations are kept distinct:
//   - The locale did not exist at a release: Source.Snapshot returns ErrNotPresent
//   - The key is not reported by a present snapshot: Snapshot.Value returns ok=false
//   - The key is reported without text: Snapshot.Value returns ir.Absent, ok=true
//
// # Deterministic Reads
//
// All queries order by key columns with COLLATE BINARY, and Snapshot.Keys
// is always sorted, so identical databases produce identical runs.
//
// # Database Configuration
//
//   - WAL mode: readers are not blocked by an import
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: values cannot outlive their snapshot
//
// The store also records one row per births run in the runs table.
package store
