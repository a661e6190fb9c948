package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/births/internal/ir"
)

// Snapshot implements Source.
// The whole snapshot is read into memory; births holds one locale at a time.
func (s *Store) Snapshot(ctx context.Context, version ir.Version, locale string) (Snapshot, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM snapshots WHERE version = ? AND locale = ?
	`, string(version), locale).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotPresent
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s/%s: %w", version, locale, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_key, value
		FROM snapshot_values
		WHERE version = ? AND locale = ?
		ORDER BY item_key COLLATE BINARY ASC
	`, string(version), locale)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s/%s: query values: %w", version, locale, err)
	}
	defer rows.Close()

	values := make(map[ir.ItemKey]ir.Value)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("read snapshot %s/%s: scan: %w", version, locale, err)
		}
		if value.Valid {
			values[ir.ItemKey(key)] = ir.Some(value.String)
		} else {
			values[ir.ItemKey(key)] = ir.Absent
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot %s/%s: iterate: %w", version, locale, err)
	}

	return NewMapSnapshot(values), nil
}

// Locales implements Source.
// Returns an empty slice (not nil) if the version has no snapshots.
func (s *Store) Locales(ctx context.Context, version ir.Version) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT locale FROM snapshots
		WHERE version = ?
		ORDER BY locale COLLATE BINARY ASC
	`, string(version))
	if err != nil {
		return nil, fmt.Errorf("query locales: %w", err)
	}
	defer rows.Close()

	locales := []string{}
	for rows.Next() {
		var locale string
		if err := rows.Scan(&locale); err != nil {
			return nil, fmt.Errorf("scan locale: %w", err)
		}
		locales = append(locales, locale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locales: %w", err)
	}

	return locales, nil
}

// Versions returns every version that has at least one snapshot, sorted by name.
// Names sort lexically here; release order comes from the configured ir.Sequence.
func (s *Store) Versions(ctx context.Context) ([]ir.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT version FROM snapshots
		ORDER BY version COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []ir.Version{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, ir.Version(v))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	var run RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, baseline, versions, tool_version, status, locales, newer_total, error_count, message
		FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Baseline,
		&run.Versions,
		&run.ToolVersion,
		&run.Status,
		&run.Locales,
		&run.NewerTotal,
		&run.ErrorCount,
		&run.Message,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return run, nil
}
