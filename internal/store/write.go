package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/births/internal/ir"
)

// PutSnapshot replaces the snapshot for (version, locale) in one transaction.
// An empty values map still records the snapshot as present.
// Values are inserted in key order so the database file is reproducible.
func (s *Store) PutSnapshot(ctx context.Context, version ir.Version, locale string, values map[ir.ItemKey]ir.Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: begin tx: %w", version, locale, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (version, locale)
		VALUES (?, ?)
		ON CONFLICT(version, locale) DO NOTHING
	`, string(version), locale)
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: insert snapshot: %w", version, locale, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM snapshot_values WHERE version = ? AND locale = ?
	`, string(version), locale)
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: clear values: %w", version, locale, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_values (version, locale, item_key, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: prepare: %w", version, locale, err)
	}
	defer stmt.Close()

	keys := make([]ir.ItemKey, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		var value any // NULL for absent
		if text, ok := values[key].Text(); ok {
			value = text
		}
		if _, err := stmt.ExecContext(ctx, string(version), locale, string(key), value); err != nil {
			return fmt.Errorf("put snapshot %s/%s: insert %q: %w", version, locale, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put snapshot %s/%s: commit: %w", version, locale, err)
	}

	return nil
}

// Run status values stored in the runs table.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunRecord is one births run as recorded in the runs table.
// Runs carry no wall-clock time; ids are UUIDv7 and sort by start.
type RunRecord struct {
	ID          string
	Baseline    string
	Versions    string // comma-separated, newest first
	ToolVersion string
	Status      string
	Locales     int
	NewerTotal  int
	ErrorCount  int
	Message     string
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, baseline, versions, tool_version, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Baseline, run.Versions, run.ToolVersion, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run started with BeginRun.
func (s *Store) FinishRun(ctx context.Context, run RunRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, locales = ?, newer_total = ?, error_count = ?, message = ?
		WHERE id = ?
	`, run.Status, run.Locales, run.NewerTotal, run.ErrorCount, run.Message, run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: run %q not found", run.ID)
	}
	return nil
}
