package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/births/internal/ir"
)

// SnapshotWriter accepts whole snapshots. Implemented by Store and Memory.
type SnapshotWriter interface {
	PutSnapshot(ctx context.Context, version ir.Version, locale string, values map[ir.ItemKey]ir.Value) error
}

// PutSnapshot implements SnapshotWriter.
func (m *Memory) PutSnapshot(ctx context.Context, version ir.Version, locale string, values map[ir.ItemKey]ir.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Put(version, locale, values)
	return nil
}

// ImportSummary counts what ImportFixtures loaded.
type ImportSummary struct {
	Versions  int `json:"versions"`
	Snapshots int `json:"snapshots"`
	Values    int `json:"values"`
}

// ImportFixtures loads a fixture tree into w.
//
// Layout: <dir>/<version>/<locale>.yaml. Each file is a single YAML mapping
// of item key to value; a null value records the key as reported without
// text. An empty file or empty mapping records the locale as present with no
// keys. Directories and files are visited in sorted order.
func ImportFixtures(ctx context.Context, dir string, w SnapshotWriter) (ImportSummary, error) {
	var summary ImportSummary

	versionDirs, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("read fixtures directory: %w", err)
	}
	sort.Slice(versionDirs, func(i, j int) bool { return versionDirs[i].Name() < versionDirs[j].Name() })

	for _, vd := range versionDirs {
		if !vd.IsDir() {
			continue
		}
		version := ir.Version(vd.Name())
		summary.Versions++

		files, err := os.ReadDir(filepath.Join(dir, vd.Name()))
		if err != nil {
			return summary, fmt.Errorf("read version directory %s: %w", version, err)
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".yaml" {
				continue
			}
			locale := strings.TrimSuffix(f.Name(), ".yaml")
			path := filepath.Join(dir, vd.Name(), f.Name())

			values, err := LoadFixtureFile(path)
			if err != nil {
				return summary, err
			}
			if err := w.PutSnapshot(ctx, version, locale, values); err != nil {
				return summary, err
			}
			summary.Snapshots++
			summary.Values += len(values)
		}
	}

	return summary, nil
}

// LoadFixtureFile parses one <locale>.yaml fixture.
func LoadFixtureFile(path string) (map[ir.ItemKey]ir.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	values := make(map[ir.ItemKey]ir.Value)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%s: expected a single YAML document", path)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s:%d: expected a mapping of item key to value", path, root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s:%d: item key must be a scalar", path, k.Line)
		}
		key := ir.ItemKey(k.Value)
		if _, dup := values[key]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate item key %q", path, k.Line, key)
		}

		switch {
		case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
			values[key] = ir.Absent
		case v.Kind == yaml.ScalarNode:
			values[key] = ir.Some(v.Value)
		default:
			return nil, fmt.Errorf("%s:%d: value for %q must be a scalar or null", path, v.Line, key)
		}
	}

	return values, nil
}
