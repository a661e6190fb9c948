// Package outdated classifies localized items as outdated by reading the
// persisted binary indexes back from disk.
//
// It deliberately knows nothing about resolution. The validator uses it as an
// independent second opinion on what the pipeline just wrote.
package outdated

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/roach88/births/internal/index"
	"github.com/roach88/births/internal/ir"
)

// Classifier answers outdated queries from a decoded newer index and
// previous-value index.
type Classifier struct {
	newer    map[string]map[ir.KeyID]struct{}
	previous map[ir.KeyID]string
	exempt   []*regexp.Regexp
}

// New builds a classifier from already decoded indexes.
func New(newer map[string][]ir.KeyID, previous map[ir.KeyID]string, exempt []*regexp.Regexp) *Classifier {
	c := &Classifier{
		newer:    make(map[string]map[ir.KeyID]struct{}, len(newer)),
		previous: previous,
		exempt:   slices.Clone(exempt),
	}
	if c.previous == nil {
		c.previous = map[ir.KeyID]string{}
	}
	for locale, ids := range newer {
		set := make(map[ir.KeyID]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		c.newer[locale] = set
	}
	return c
}

// Load decodes both index files and builds a classifier.
func Load(newerPath, previousPath string, exempt []*regexp.Regexp) (*Classifier, error) {
	newer, err := index.ReadNewerFile(newerPath)
	if err != nil {
		return nil, fmt.Errorf("load outdated classifier: %w", err)
	}
	previous, err := index.ReadPreviousFile(previousPath)
	if err != nil {
		return nil, fmt.Errorf("load outdated classifier: %w", err)
	}
	return New(newer, previous, exempt), nil
}

// Locales returns the locales present in the newer index, sorted.
func (c *Classifier) Locales() []string {
	locales := make([]string, 0, len(c.newer))
	for locale := range c.newer {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	return locales
}

// CountOutdated returns how many keys the index marks outdated for locale.
// Unknown locales have zero.
func (c *Classifier) CountOutdated(locale string) int {
	return len(c.newer[locale])
}

// IsOutdated reports whether key is in locale's newer set.
// The lookup goes through the key's id, exactly as a downstream reader would.
func (c *Classifier) IsOutdated(locale string, key ir.ItemKey) bool {
	_, ok := c.newer[locale][ir.KeyIDOf(key)]
	return ok
}

// IsExempt reports whether key matches any exemption pattern.
func (c *Classifier) IsExempt(key ir.ItemKey) bool {
	for _, re := range c.exempt {
		if re.MatchString(string(key)) {
			return true
		}
	}
	return false
}

// PreviousBaseline returns the baseline's previous value for key.
// ok is false when the key is not in the previous-value index.
func (c *Classifier) PreviousBaseline(key ir.ItemKey) (string, bool) {
	text, ok := c.previous[ir.KeyIDOf(key)]
	return text, ok
}
