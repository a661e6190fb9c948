package birth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/store"
)

// ErrLocaleNotFound is returned when the locale has no snapshot at the newest
// tracked release, so there are no current values to resolve.
var ErrLocaleNotFound = errors.New("locale not present at newest release")

// Config holds everything a Resolver needs for one run.
type Config struct {
	// Sequence lists the tracked releases, newest first.
	Sequence ir.Sequence

	// Source supplies the per-release snapshots.
	Source store.Source

	// Logger receives progress output. Defaults to slog.Default().
	Logger *slog.Logger

	// Debug logs every resolved record at debug level.
	Debug bool

	// KeyID ids keys for collision checks. Defaults to ir.KeyIDOf, the id
	// the binary indexes use.
	KeyID func(ir.ItemKey) ir.KeyID
}

// Resolver computes birth records for one locale at a time.
type Resolver struct {
	cfg    Config
	logger *slog.Logger
}

// NewResolver creates a resolver for one run.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// Group is the set of keys born at one version, sorted by key text.
type Group struct {
	Version ir.Version
	Keys    []ir.ItemKey
}

// Births is the resolution result for one locale. It is read-only.
type Births struct {
	locale  string
	seq     ir.Sequence
	records map[ir.ItemKey]ir.BirthRecord
	keys    []ir.ItemKey
	groups  []Group
}

// Locale returns the locale these births belong to.
func (b *Births) Locale() string {
	return b.locale
}

// Sequence returns the release sequence the births were resolved against.
func (b *Births) Sequence() ir.Sequence {
	return b.seq
}

// Len returns the number of resolved keys.
func (b *Births) Len() int {
	return len(b.keys)
}

// Record returns the birth record for key.
func (b *Births) Record(key ir.ItemKey) (ir.BirthRecord, bool) {
	r, ok := b.records[key]
	return r, ok
}

// Keys returns every resolved key, sorted by key text.
func (b *Births) Keys() []ir.ItemKey {
	return b.keys
}

// ByVersion returns keys grouped by birth version, newest version first.
// Versions with no births are omitted.
func (b *Births) ByVersion() []Group {
	return b.groups
}

// Resolve computes the birth record of every key the locale reports at the
// newest release.
//
// Returns ErrLocaleNotFound if the newest release has no snapshot for the
// locale, and a *ir.KeyCollisionError if two keys share a KeyID.
func (r *Resolver) Resolve(ctx context.Context, locale string) (*Births, error) {
	history, err := r.history(ctx, locale)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", locale, ErrLocaleNotFound)
	}

	seq := r.cfg.Sequence
	newest := history[0]
	keys := newest.Keys()

	records := make(map[ir.ItemKey]ir.BirthRecord, len(keys))
	for _, key := range keys {
		current, _ := newest.Value(key)
		rec := resolveKey(key, current, history, seq)
		records[key] = rec

		if r.cfg.Debug {
			r.logger.Debug("birth resolved",
				"locale", locale,
				"key", key,
				"birth", rec.Birth(),
				"current", rec.Current().String(),
				"previous", rec.Previous().String(),
			)
		}
	}

	groups, err := groupByVersion(seq, records, r.cfg.KeyID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", locale, err)
	}

	r.logger.Info("locale resolved",
		"locale", locale,
		"keys", len(keys),
		"history", len(history),
	)

	return &Births{
		locale:  locale,
		seq:     seq,
		records: records,
		keys:    slices.Clone(keys),
		groups:  groups,
	}, nil
}

// history opens the locale's snapshots newest first. The first release at
// which the locale is missing ends the history.
func (r *Resolver) history(ctx context.Context, locale string) ([]store.Snapshot, error) {
	seq := r.cfg.Sequence
	history := make([]store.Snapshot, 0, seq.Len())

	for i := 0; i < seq.Len(); i++ {
		version := seq.At(i)
		snap, err := r.cfg.Source.Snapshot(ctx, version, locale)
		if errors.Is(err, store.ErrNotPresent) {
			r.logger.Debug("end of history",
				"locale", locale,
				"missing_at", version,
			)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s: open %s: %w", locale, version, err)
		}
		history = append(history, snap)
	}

	return history, nil
}

// resolveKey scans history (aligned with seq positions) for the first release
// whose value differs from current.
func resolveKey(key ir.ItemKey, current ir.Value, history []store.Snapshot, seq ir.Sequence) ir.BirthRecord {
	previous := ir.Absent

	i := 1
	for ; i < len(history); i++ {
		v, ok := history[i].Value(key)
		if !ok {
			v = FallbackValue(key)
		}
		if !v.Equal(current) {
			previous = v
			break
		}
	}

	return ir.NewBirthRecord(seq.At(i-1), current, previous)
}

// groupByVersion groups keys by birth version in sequence order and checks
// that no two keys share a KeyID under keyID.
func groupByVersion(seq ir.Sequence, records map[ir.ItemKey]ir.BirthRecord, keyID func(ir.ItemKey) ir.KeyID) ([]Group, error) {
	byVersion := make(map[ir.Version][]ir.ItemKey)
	for key, rec := range records {
		byVersion[rec.Birth()] = append(byVersion[rec.Birth()], key)
	}

	registry := ir.NewKeyRegistry(keyID)
	groups := make([]Group, 0, len(byVersion))
	for _, version := range seq.Versions() {
		keys, ok := byVersion[version]
		if !ok {
			continue
		}
		slices.Sort(keys)
		for _, key := range keys {
			if _, err := registry.Register(key); err != nil {
				return nil, err
			}
		}
		groups = append(groups, Group{Version: version, Keys: keys})
	}

	return groups, nil
}
