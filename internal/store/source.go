package store

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/births/internal/ir"
)

// ErrNotPresent is returned by Source.Snapshot when the locale did not exist
// at the requested release. Callers treat it as the end of that locale's
// history, never as a failure.
var ErrNotPresent = errors.New("snapshot not present")

// Snapshot is one locale's dataset at one release.
type Snapshot interface {
	// Keys returns every reported item key, sorted by key text.
	Keys() []ir.ItemKey

	// Value returns the value of key. ok is false when the key is not
	// reported at all by this snapshot.
	Value(key ir.ItemKey) (v ir.Value, ok bool)
}

// Source opens snapshots by (version, locale).
type Source interface {
	// Snapshot returns the locale's dataset at version, or ErrNotPresent.
	Snapshot(ctx context.Context, version ir.Version, locale string) (Snapshot, error)

	// Locales lists the locales present at version, sorted.
	Locales(ctx context.Context, version ir.Version) ([]string, error)
}

// MapSnapshot is a Snapshot backed by a map.
type MapSnapshot struct {
	values map[ir.ItemKey]ir.Value
	keys   []ir.ItemKey
}

// NewMapSnapshot builds a snapshot from key → value.
// The map is copied; later changes to it are not observed.
func NewMapSnapshot(values map[ir.ItemKey]ir.Value) *MapSnapshot {
	s := &MapSnapshot{
		values: make(map[ir.ItemKey]ir.Value, len(values)),
		keys:   make([]ir.ItemKey, 0, len(values)),
	}
	for k, v := range values {
		s.values[k] = v
		s.keys = append(s.keys, k)
	}
	slices.Sort(s.keys)
	return s
}

// Keys implements Snapshot.
func (s *MapSnapshot) Keys() []ir.ItemKey {
	return s.keys
}

// Value implements Snapshot.
func (s *MapSnapshot) Value(key ir.ItemKey) (ir.Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Memory is an in-process Source.
// Not safe for concurrent mutation; births runs are single-threaded.
type Memory struct {
	data map[ir.Version]map[string]*MapSnapshot
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{data: make(map[ir.Version]map[string]*MapSnapshot)}
}

// Put installs the snapshot for (version, locale), replacing any previous one.
func (m *Memory) Put(version ir.Version, locale string, values map[ir.ItemKey]ir.Value) {
	byLocale, ok := m.data[version]
	if !ok {
		byLocale = make(map[string]*MapSnapshot)
		m.data[version] = byLocale
	}
	byLocale[locale] = NewMapSnapshot(values)
}

// Snapshot implements Source.
func (m *Memory) Snapshot(ctx context.Context, version ir.Version, locale string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, ok := m.data[version][locale]
	if !ok {
		return nil, ErrNotPresent
	}
	return snap, nil
}

// Locales implements Source.
func (m *Memory) Locales(ctx context.Context, version ir.Version) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locales := make([]string, 0, len(m.data[version]))
	for locale := range m.data[version] {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	return locales, nil
}
