package birth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/births/internal/ir"
)

// ReadNewer recovers a locale's newer set from its comparison report.
// Every line of a comparison report is a selected key; the key is the
// fourth column.
func ReadNewer(r io.Reader, locale string) ([]ir.ItemKey, error) {
	newer := []ir.ItemKey{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for n := 1; sc.Scan(); n++ {
		fields := strings.SplitN(sc.Text(), "\t", 5)
		if len(fields) < 5 {
			return nil, fmt.Errorf("report line %d: want at least 5 columns, got %d", n, len(fields))
		}
		if fields[0] != locale {
			return nil, fmt.Errorf("report line %d: locale %q, want %q", n, fields[0], locale)
		}
		newer = append(newer, ir.ItemKey(fields[3]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	slices.Sort(newer)
	return slices.Compact(newer), nil
}

// ReadReportDir reads every <locale>.txt in dir except the baseline's.
func ReadReportDir(dir, baseline string) (map[string][]ir.ItemKey, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	newer := make(map[string][]ir.ItemKey, len(paths))
	for _, path := range paths {
		locale := strings.TrimSuffix(filepath.Base(path), ".txt")
		if locale == baseline {
			continue
		}
		keys, err := readNewerFile(path, locale)
		if err != nil {
			return nil, err
		}
		newer[locale] = keys
	}
	return newer, nil
}

func readNewerFile(path, locale string) ([]ir.ItemKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	keys, err := ReadNewer(f, locale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keys, nil
}
