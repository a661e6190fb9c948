package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/births/internal/ir"
)

func writeFixture(t *testing.T, dir, version, locale, content string) {
	t.Helper()
	vdir := filepath.Join(dir, version)
	require.NoError(t, os.MkdirAll(vdir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(vdir, locale+".yaml"), []byte(content), 0644))
}

func TestLoadFixtureFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "trunk", "fr", `
"//ldml/a": "un"
"//ldml/empty": ""
"//ldml/null": ~
"//ldml/number": 42
`)

	values, err := LoadFixtureFile(filepath.Join(dir, "trunk", "fr.yaml"))
	require.NoError(t, err)
	require.Len(t, values, 4)

	assert.True(t, values["//ldml/a"].Equal(ir.Some("un")))
	assert.True(t, values["//ldml/empty"].Equal(ir.Some("")))
	assert.False(t, values["//ldml/null"].Present())
	assert.True(t, values["//ldml/number"].Equal(ir.Some("42")))
}

func TestLoadFixtureFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"not a mapping", "- a\n- b\n", "expected a mapping"},
		{"nested value", "a:\n  b: c\n", "must be a scalar or null"},
		{"duplicate key", "a: x\na: y\n", ""},
		{"bad yaml", "a: [\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFixture(t, dir, "trunk", "fr", tt.content)

			_, err := LoadFixtureFile(filepath.Join(dir, "trunk", "fr.yaml"))
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoadFixtureFile_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "trunk", "fr", "\n")

	values, err := LoadFixtureFile(filepath.Join(dir, "trunk", "fr.yaml"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestImportFixtures_IntoStore(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "trunk", "en", `"k": "X"`)
	writeFixture(t, dir, "trunk", "fr", `"k": "x"`)
	writeFixture(t, dir, "1.9.0", "en", `"k": "Y"`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trunk", "notes.txt"), []byte("ignored"), 0644))

	s := createTestStore(t)
	ctx := context.Background()

	summary, err := ImportFixtures(ctx, dir, s)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Versions: 2, Snapshots: 3, Values: 3}, summary)

	snap, err := s.Snapshot(ctx, "1.9.0", "en")
	require.NoError(t, err)
	v, ok := snap.Value("k")
	require.True(t, ok)
	assert.True(t, v.Equal(ir.Some("Y")))

	_, err = s.Snapshot(ctx, "1.9.0", "fr")
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestImportFixtures_IntoMemory(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "trunk", "fr", `"k": "x"`)

	m := NewMemory()
	_, err := ImportFixtures(context.Background(), dir, m)
	require.NoError(t, err)

	locales, err := m.Locales(context.Background(), "trunk")
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, locales)
}

func TestImportFixtures_MissingDir(t *testing.T) {
	_, err := ImportFixtures(context.Background(), "/nonexistent/fixtures", NewMemory())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixtures directory")
}

func TestMemory_Source(t *testing.T) {
	m := NewMemory()
	m.Put("trunk", "fr", map[ir.ItemKey]ir.Value{"b": ir.Some("2"), "a": ir.Some("1")})

	snap, err := m.Snapshot(context.Background(), "trunk", "fr")
	require.NoError(t, err)
	assert.Equal(t, []ir.ItemKey{"a", "b"}, snap.Keys())

	_, err = m.Snapshot(context.Background(), "1.9.0", "fr")
	assert.ErrorIs(t, err, ErrNotPresent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Snapshot(ctx, "trunk", "fr")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMapSnapshot_CopiesInput(t *testing.T) {
	in := map[ir.ItemKey]ir.Value{"a": ir.Some("1")}
	snap := NewMapSnapshot(in)
	in["b"] = ir.Some("2")

	assert.Equal(t, []ir.ItemKey{"a"}, snap.Keys())
	_, ok := snap.Value("b")
	assert.False(t, ok)
}
