package testutil

import (
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/store"
)

// Null marks a key that is reported by a snapshot but has no text.
// Any other string is stored as-is, including "".
const Null = "\x00null"

// Releases describes test snapshots as version → locale → key → value.
// A locale missing under a version means the locale did not exist at that
// release.
//
//	testutil.Releases{
//		"R2": {"fr": {"k": "X"}},
//		"R1": {"fr": {"k": "Y"}},
//	}.Source()
type Releases map[ir.Version]map[string]map[string]string

// Source builds an in-memory store.Source from the releases.
func (r Releases) Source() *store.Memory {
	m := store.NewMemory()
	for version, locales := range r {
		for locale, kv := range locales {
			values := make(map[ir.ItemKey]ir.Value, len(kv))
			for k, v := range kv {
				if v == Null {
					values[ir.ItemKey(k)] = ir.Absent
				} else {
					values[ir.ItemKey(k)] = ir.Some(v)
				}
			}
			m.Put(version, locale, values)
		}
	}
	return m
}

// Sequence is shorthand for ir.MustSequence with string versions.
func Sequence(newestFirst ...string) ir.Sequence {
	versions := make([]ir.Version, len(newestFirst))
	for i, v := range newestFirst {
		versions[i] = ir.Version(v)
	}
	return ir.MustSequence(versions...)
}
