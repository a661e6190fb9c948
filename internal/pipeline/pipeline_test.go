package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/births/internal/birth"
	"github.com/roach88/births/internal/index"
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/metrics"
	"github.com/roach88/births/internal/store"
	"github.com/roach88/births/internal/testutil"
	"github.com/roach88/births/internal/validate"
)

// releases over R2 (newest), R1, R0.
//
//	en: k1 born R1 (prev Uno), k2 born R0 (no prev), k3 born R2 (prev Tri)
//	fr: k1 born R2, k2 born R0, k3 born R1, k4 fr-only  → newer [k1]
//	de: k2 born R2, absent at R0                        → newer [k2]
//	en_GB is a region locale and never compared.
func releases() testutil.Releases {
	return testutil.Releases{
		"R2": {
			"en":    {"k1": "One", "k2": "Two", "k3": "Three"},
			"en_GB": {"k1": "One"},
			"fr":    {"k1": "Un", "k2": "Deux", "k3": "Trois", "k4": "Quatre"},
			"de":    {"k2": "Zwei"},
		},
		"R1": {
			"en": {"k1": "One", "k2": "Two", "k3": "Tri"},
			"fr": {"k1": "Une", "k2": "Deux", "k3": "Trois"},
			"de": {"k2": "Zwo"},
		},
		"R0": {
			"en": {"k1": "Uno", "k2": "Two", "k3": "Tri"},
			"fr": {"k1": "Une", "k2": "Deux", "k3": "Troi"},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func baseOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		Sequence: testutil.Sequence("R2", "R1", "R0"),
		Source:   releases().Source(),
		Baseline: "en",
		Target:   filepath.Join(dir, "data"),
		Log:      filepath.Join(dir, "log"),
		Logger:   quietLogger(),
		RunIDs:   testutil.NewFixedRunIDGenerator("run-1"),
		Now:      func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "births.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRun_Clean(t *testing.T) {
	opts := baseOptions(t)
	opts.Exempt = []*regexp.Regexp{regexp.MustCompile(`^k2$`)}
	st := openStore(t)
	opts.Runs = st

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 3, res.BaselineKeys)
	assert.Equal(t, []LocaleResult{
		{Locale: "de", Keys: 1, Newer: 1},
		{Locale: "fr", Keys: 4, Newer: 1},
	}, res.Locales)
	assert.Equal(t, 2, res.NewerTotal)
	assert.Equal(t, map[string][]ir.ItemKey{"de": {"k2"}, "fr": {"k1"}}, res.Newer)
	assert.Empty(t, res.Skipped)

	require.NotNil(t, res.Validation)
	assert.Equal(t, 2, res.Validation.Locales)
	assert.Zero(t, res.Validation.ErrorCount)

	newer, err := index.ReadNewerFile(res.NewerPath)
	require.NoError(t, err)
	assert.Equal(t, map[string][]ir.KeyID{
		"de": {ir.KeyIDOf("k2")},
		"fr": {ir.KeyIDOf("k1")},
	}, newer)

	previous, err := index.ReadPreviousFile(res.PreviousPath)
	require.NoError(t, err)
	assert.Equal(t, map[ir.KeyID]string{
		ir.KeyIDOf("k1"): "Uno",
		ir.KeyIDOf("k2"): "",
		ir.KeyIDOf("k3"): "Tri",
	}, previous)

	// Grouped by birth version, newest first.
	assert.Equal(t, []string{
		"en\tR2\tR2\tk3\tThree\tTri",
		"en\tR1\tR2\tk1\tOne\tUno",
		"en\tR0\tR2\tk2\tTwo\t∅",
	}, readLines(t, filepath.Join(opts.Log, "en.txt")))
	assert.Equal(t, []string{"fr\tR2\tR1\tk1\tUn\tUne\tOne\tUno"}, readLines(t, filepath.Join(opts.Log, "fr.txt")))
	assert.Equal(t, []string{"de\tR2\tR0\tk2\tZwei\tZwo\tTwo\t∅"}, readLines(t, filepath.Join(opts.Log, "de.txt")))
	assert.NoFileExists(t, filepath.Join(opts.Log, "en_GB.txt"))

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusSucceeded, run.Status)
	assert.Equal(t, "R2,R1,R0", run.Versions)
	assert.Equal(t, ir.ToolVersion, run.ToolVersion)
	assert.Equal(t, 2, run.Locales)
	assert.Equal(t, 2, run.NewerTotal)
	assert.Zero(t, run.ErrorCount)
}

func TestRun_NeedsPrevious(t *testing.T) {
	opts := baseOptions(t)
	st := openStore(t)
	opts.Runs = st

	res, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, validate.IsFailed(err))
	assert.False(t, validate.IsMismatch(err))

	require.NotNil(t, res)
	require.NotNil(t, res.Validation)
	assert.Equal(t, []ir.ItemKey{"k2"}, res.Validation.NeedsPrevious)
	assert.Equal(t, 1, res.Validation.ErrorCount)
	assert.FileExists(t, res.NewerPath, "indexes are written before validation")

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusFailed, run.Status)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Contains(t, run.Message, "validation failed with 1 errors")
}

func TestRun_PreviousOnly(t *testing.T) {
	opts := baseOptions(t)
	opts.PreviousOnly = true

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.FileExists(t, res.PreviousPath)
	assert.FileExists(t, filepath.Join(opts.Log, "en.txt"))
	assert.Empty(t, res.NewerPath)
	assert.NoFileExists(t, filepath.Join(opts.Target, index.NewerFileName))
	assert.NoFileExists(t, filepath.Join(opts.Log, "fr.txt"))
	assert.Nil(t, res.Validation)
}

func TestRun_LocaleFilter(t *testing.T) {
	opts := baseOptions(t)
	opts.LocaleFilter = regexp.MustCompile(`^fr$`)

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []LocaleResult{{Locale: "fr", Keys: 4, Newer: 1}}, res.Locales)
	assert.NoFileExists(t, filepath.Join(opts.Log, "de.txt"))
}

func TestRun_FromSQLiteStore(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	for version, locales := range releases() {
		src := releases().Source()
		for locale := range locales {
			snap, err := src.Snapshot(ctx, version, locale)
			require.NoError(t, err)
			values := map[ir.ItemKey]ir.Value{}
			for _, key := range snap.Keys() {
				values[key], _ = snap.Value(key)
			}
			require.NoError(t, st.PutSnapshot(ctx, version, locale, values))
		}
	}

	opts := baseOptions(t)
	opts.Source = st
	opts.Runs = st
	opts.Exempt = []*regexp.Regexp{regexp.MustCompile(`^k2$`)}

	res, err := Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, map[string][]ir.ItemKey{"de": {"k2"}, "fr": {"k1"}}, res.Newer)
}

func TestRun_Deterministic(t *testing.T) {
	a, b := baseOptions(t), baseOptions(t)
	_, errA := Run(context.Background(), a)
	_, errB := Run(context.Background(), b)
	require.Equal(t, errA != nil, errB != nil)

	for _, name := range []string{index.NewerFileName, index.PreviousFileName} {
		da, err := os.ReadFile(filepath.Join(a.Target, name))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(b.Target, name))
		require.NoError(t, err)
		assert.Equal(t, da, db, name)
	}
}

func TestRun_BaselineMissing(t *testing.T) {
	opts := baseOptions(t)
	opts.Baseline = "root"
	st := openStore(t)
	opts.Runs = st

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, birth.ErrLocaleNotFound)

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusFailed, run.Status)
}

func TestRun_Metrics(t *testing.T) {
	opts := baseOptions(t)
	opts.Metrics = metrics.NewRun()
	opts.Exempt = []*regexp.Regexp{regexp.MustCompile(`^k2$`)}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "births.prom")
	require.NoError(t, opts.Metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `births_keys_resolved_total{locale="en"} 3`)
	assert.Contains(t, text, `births_keys_resolved_total{locale="fr"} 4`)
	assert.Contains(t, text, `births_newer_keys{locale="de"} 1`)
	assert.Contains(t, text, "births_last_success_timestamp_seconds 1.7e+09")
}

type failingSource struct {
	store.Source
}

func (f failingSource) Locales(ctx context.Context, version ir.Version) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func TestRun_SourceError(t *testing.T) {
	opts := baseOptions(t)
	opts.Source = failingSource{Source: releases().Source()}

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestRun_Cancelled(t *testing.T) {
	opts := baseOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"no versions", func(o *Options) { o.Sequence = ir.Sequence{} }},
		{"no source", func(o *Options) { o.Source = nil }},
		{"no baseline", func(o *Options) { o.Baseline = "" }},
		{"no target", func(o *Options) { o.Target = "" }},
		{"no log", func(o *Options) { o.Log = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions(t)
			tt.mutate(&opts)
			_, err := Run(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline:")
		})
	}
}

func TestCheck_AgainstReports(t *testing.T) {
	opts := baseOptions(t)
	_, err := Run(context.Background(), opts)
	require.Error(t, err)

	newer, err := birth.ReadReportDir(opts.Log, "en")
	require.NoError(t, err)

	report, err := Check(
		filepath.Join(opts.Target, index.NewerFileName),
		filepath.Join(opts.Target, index.PreviousFileName),
		[]*regexp.Regexp{regexp.MustCompile(`^k2$`)},
		newer,
		quietLogger(),
	)
	require.NoError(t, err)
	assert.NoError(t, report.Err())
}

func TestCheck_IgnoresReportsFromEarlierRuns(t *testing.T) {
	opts := baseOptions(t)
	opts.Exempt = []*regexp.Regexp{regexp.MustCompile(`^k2$`)}
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	opts.LocaleFilter = regexp.MustCompile(`^fr$`)
	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, map[string][]ir.ItemKey{"fr": {"k1"}}, res.Newer)

	// de.txt from the first run is still in the log directory.
	newer, err := birth.ReadReportDir(opts.Log, "en")
	require.NoError(t, err)
	assert.Equal(t, map[string][]ir.ItemKey{"de": {"k2"}, "fr": {"k1"}}, newer)

	report, err := Check(res.NewerPath, res.PreviousPath, opts.Exempt, newer, quietLogger())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Locales)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Disagreements)
}

func TestCheck_IndexedLocaleWithoutReport(t *testing.T) {
	opts := baseOptions(t)
	opts.Exempt = []*regexp.Regexp{regexp.MustCompile(`^k2$`)}
	res, err := Run(context.Background(), opts)
	require.NoError(t, err)

	report, err := Check(res.NewerPath, res.PreviousPath, opts.Exempt,
		map[string][]ir.ItemKey{"fr": {"k1"}}, quietLogger())
	require.NoError(t, err)

	err = report.Err()
	require.Error(t, err)
	assert.True(t, validate.IsMismatch(err))
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "de", report.Mismatches[0].Locale)
	assert.Equal(t, 0, report.Mismatches[0].NewerCount)
	assert.Equal(t, 1, report.Mismatches[0].Outdated)
}

func TestSelectLocales(t *testing.T) {
	all := []string{"en", "fr", "en_GB", "zh_Hant", "es_419", "pt_PT", "root", "de", "sr_Latn_RS", "fr"}

	assert.Equal(t, []string{"de", "fr", "root", "zh_Hant"}, SelectLocales(all, "en", nil))
	assert.Equal(t, []string{"zh_Hant"}, SelectLocales(all, "en", regexp.MustCompile(`^zh`)))
	assert.Empty(t, SelectLocales(nil, "en", nil))
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
