package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Counters(t *testing.T) {
	r := NewRun()

	r.ObserveLocale("en", 10, -1)
	r.ObserveLocale("fr", 8, 3)
	r.ObserveLocale("fr", 2, 4)
	r.LocaleSkipped()
	r.ObserveValidation(1, 2, 0)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.keysResolved.WithLabelValues("en")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.keysResolved.WithLabelValues("fr")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.newerKeys.WithLabelValues("fr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.localesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validationError.WithLabelValues("mismatch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.validationError.WithLabelValues("disagreement")))

	// Baseline has no newer gauge.
	assert.Equal(t, 1, testutil.CollectAndCount(r.newerKeys))
}

func TestRun_Finish(t *testing.T) {
	r := NewRun()
	r.Finish(1.5, 1700000000, false)
	assert.Equal(t, 1.5, testutil.ToFloat64(r.duration))
	assert.Zero(t, testutil.ToFloat64(r.lastSuccess))

	r.Finish(2, 1700000000, true)
	assert.Equal(t, 1.7e9, testutil.ToFloat64(r.lastSuccess))
}

func TestRun_Isolated(t *testing.T) {
	a, b := NewRun(), NewRun()
	a.LocaleSkipped()
	assert.Zero(t, testutil.ToFloat64(b.localesSkipped))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRun()
	r.ObserveLocale("fr", 5, 2)

	path := filepath.Join(t.TempDir(), "births.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `births_keys_resolved_total{locale="fr"} 5`)
	assert.Contains(t, string(data), `births_newer_keys{locale="fr"} 2`)
	assert.Contains(t, string(data), "# HELP births_locales_skipped_total")
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := NewRun().WriteTextfile(filepath.Join(t.TempDir(), "missing", "births.prom"))
	require.Error(t, err)
}
