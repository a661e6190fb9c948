package harness

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its reports against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(renderReports(result.Reports)))
	return result, nil
}

// renderReports joins reports in locale order under a header line each.
func renderReports(reports map[string]string) string {
	locales := make([]string, 0, len(reports))
	for locale := range reports {
		locales = append(locales, locale)
	}
	slices.Sort(locales)

	var b strings.Builder
	for _, locale := range locales {
		b.WriteString("== " + locale + " ==\n")
		b.WriteString(reports[locale])
	}
	return b.String()
}
