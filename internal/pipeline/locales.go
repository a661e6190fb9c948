package pipeline

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// SelectLocales picks the locales to compare against the baseline: every
// locale except the baseline itself and region variants such as en_GB or
// es_419, optionally narrowed by filter. The result is sorted.
func SelectLocales(all []string, baseline string, filter *regexp.Regexp) []string {
	selected := make([]string, 0, len(all))
	for _, id := range all {
		if id == baseline || hasRegion(id) {
			continue
		}
		if filter != nil && !filter.MatchString(id) {
			continue
		}
		selected = append(selected, id)
	}
	slices.Sort(selected)
	return slices.Compact(selected)
}

// hasRegion reports whether the locale id names a region explicitly.
// Ids that do not parse as language tags are treated as region-less.
func hasRegion(id string) bool {
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		return false
	}
	_, conf := tag.Region()
	return conf == language.Exact
}
