// Package ir provides the core data types shared by every births package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Versions are ordered by their position in a Sequence, never by name
//   - Value distinguishes an absent value from the empty string
//   - KeyID is the only identity persisted for an ItemKey, so it must be
//     injective over every key seen in a run (see KeyRegistry)
//   - BirthRecord is immutable once built
package ir
