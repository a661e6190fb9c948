package birth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/births/internal/ir"
)

// ErrUnreportableKey is returned when a key to be written contains a tab or a
// line break. Report lines are tab-separated, one per line, so such a key
// could not be read back by ReadNewer.
var ErrUnreportableKey = errors.New("key cannot be written to a report")

// SelectNewer compares a locale's births with the baseline's and writes one
// report line per selected key to report.
//
// With a baseline, a key is selected when the baseline also has it and the
// locale's birth is strictly more recent than the baseline's birth; selected
// keys form the returned newer set. With a nil baseline every key is written
// and the returned set is empty.
//
// Keys are visited by birth version, then key text, so both the report and
// the returned set (sorted by key text) are deterministic.
func SelectNewer(locale, baseline *Births, report io.Writer) ([]ir.ItemKey, error) {
	seq := locale.Sequence()
	w := bufio.NewWriter(report)
	newer := []ir.ItemKey{}

	for _, group := range locale.ByVersion() {
		for _, key := range group.Keys {
			rec, _ := locale.Record(key)

			if baseline == nil {
				if err := checkReportable(key); err != nil {
					return nil, err
				}
				line := formatLine(locale.Locale(), rec, seq.Newest(), key, nil)
				if _, err := w.WriteString(line); err != nil {
					return nil, fmt.Errorf("write report line: %w", err)
				}
				continue
			}

			other, ok := baseline.Record(key)
			if !ok {
				continue
			}
			if !seq.NewerThan(rec.Birth(), other.Birth()) {
				continue
			}
			if err := checkReportable(key); err != nil {
				return nil, err
			}
			newer = append(newer, key)

			line := formatLine(locale.Locale(), rec, other.Birth(), key, &other)
			if _, err := w.WriteString(line); err != nil {
				return nil, fmt.Errorf("write report line: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}

	slices.Sort(newer)
	return newer, nil
}

func checkReportable(key ir.ItemKey) error {
	if strings.ContainsAny(string(key), "\t\n\r") {
		return fmt.Errorf("%w: %q", ErrUnreportableKey, key)
	}
	return nil
}

// formatLine renders one tab-separated report line. The baseline columns
// are present only when baseline is non-nil. Callers pass keys through
// checkReportable first; ReadNewer relies on the key being column four.
func formatLine(locale string, rec ir.BirthRecord, comparison ir.Version, key ir.ItemKey, baseline *ir.BirthRecord) string {
	fields := []string{
		locale,
		string(rec.Birth()),
		string(comparison),
		string(key),
		rec.Current().String(),
		rec.Previous().String(),
	}
	if baseline != nil {
		fields = append(fields, baseline.Current().String(), baseline.Previous().String())
	}
	return strings.Join(fields, "\t") + "\n"
}

// WriteReport writes <dir>/<locale>.txt for the locale's births and returns
// the newer set. baseline may be nil for the baseline's own report.
func WriteReport(dir string, locale, baseline *Births) ([]ir.ItemKey, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, locale.Locale()+".txt")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	newer, err := SelectNewer(locale, baseline, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close report %s: %w", path, err)
	}
	return newer, nil
}
