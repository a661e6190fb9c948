package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/births/internal/birth"
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/store"
)

// Result is the outcome of one scenario run.
type Result struct {
	Pass       bool
	Mismatches []Mismatch

	// Reports maps locale → report text for the baseline (report-only
	// mode) and every locale with an expected newer set.
	Reports map[string]string
}

// Run executes a scenario against a fresh in-memory store.
// The returned error covers setup and resolution failures; unmet
// expectations are reported in Result.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := load(ctx, st, s); err != nil {
		return nil, err
	}

	versions := make([]ir.Version, len(s.Versions))
	for i, v := range s.Versions {
		versions[i] = ir.Version(v)
	}
	seq, err := ir.NewSequence(versions...)
	if err != nil {
		return nil, err
	}

	resolver := birth.NewResolver(birth.Config{
		Sequence: seq,
		Source:   st,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	})

	result := &Result{Reports: map[string]string{}}

	for _, locale := range sortedKeys(s.Expect.Births) {
		births, err := resolver.Resolve(ctx, locale)
		if err != nil {
			return nil, err
		}
		result.Mismatches = append(result.Mismatches, checkBirths(births, s.Expect.Births[locale])...)
	}

	if len(s.Expect.Newer) > 0 {
		baseline, err := resolver.Resolve(ctx, s.Baseline)
		if err != nil {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		var buf bytes.Buffer
		if _, err := birth.SelectNewer(baseline, nil, &buf); err != nil {
			return nil, err
		}
		result.Reports[s.Baseline] = buf.String()

		for _, locale := range sortedKeys(s.Expect.Newer) {
			births, err := resolver.Resolve(ctx, locale)
			if err != nil {
				return nil, err
			}
			buf.Reset()
			newer, err := birth.SelectNewer(births, baseline, &buf)
			if err != nil {
				return nil, err
			}
			result.Reports[locale] = buf.String()

			want := make([]ir.ItemKey, len(s.Expect.Newer[locale]))
			for i, k := range s.Expect.Newer[locale] {
				want[i] = ir.ItemKey(k)
			}
			slices.Sort(want)
			if !slices.Equal(want, newer) {
				result.Mismatches = append(result.Mismatches, Mismatch{
					Locale:   locale,
					Field:    "newer",
					Expected: fmt.Sprint(want),
					Actual:   fmt.Sprint(newer),
				})
			}
		}
	}

	result.Pass = len(result.Mismatches) == 0
	return result, nil
}

// load writes the scenario's releases into the store.
func load(ctx context.Context, st *store.Store, s *Scenario) error {
	for _, version := range s.Versions {
		for _, locale := range sortedKeys(s.Releases[version]) {
			kv := s.Releases[version][locale]
			values := make(map[ir.ItemKey]ir.Value, len(kv))
			for k, v := range kv {
				if v == nil {
					values[ir.ItemKey(k)] = ir.Absent
				} else {
					values[ir.ItemKey(k)] = ir.Some(*v)
				}
			}
			if err := st.PutSnapshot(ctx, ir.Version(version), locale, values); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkBirths(births *birth.Births, want map[string]ExpectedBirth) []Mismatch {
	var mismatches []Mismatch
	for _, key := range sortedKeys(want) {
		exp := want[key]
		rec, ok := births.Record(ir.ItemKey(key))
		if !ok {
			mismatches = append(mismatches, Mismatch{
				Locale: births.Locale(), Key: key, Field: "record",
				Expected: "a record", Actual: "none",
			})
			continue
		}
		if string(rec.Birth()) != exp.Birth {
			mismatches = append(mismatches, Mismatch{
				Locale: births.Locale(), Key: key, Field: "birth",
				Expected: exp.Birth, Actual: string(rec.Birth()),
			})
		}
		expPrev := ir.Absent
		if exp.Previous != nil {
			expPrev = ir.Some(*exp.Previous)
		}
		if !rec.Previous().Equal(expPrev) {
			mismatches = append(mismatches, Mismatch{
				Locale: births.Locale(), Key: key, Field: "previous",
				Expected: expPrev.String(), Actual: rec.Previous().String(),
			})
		}
	}
	return mismatches
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
