// Package validate cross-checks a run's newer sets against the persisted
// indexes as read back by an outdated classifier.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/births/internal/ir"
)

// Classifier is the read side of the persisted indexes.
// *outdated.Classifier satisfies it.
type Classifier interface {
	CountOutdated(locale string) int
	IsOutdated(locale string, key ir.ItemKey) bool
	IsExempt(key ir.ItemKey) bool
	PreviousBaseline(key ir.ItemKey) (string, bool)
}

// MismatchError reports a locale whose newer set size differs from the
// classifier's outdated count.
type MismatchError struct {
	Locale     string `json:"locale"`
	NewerCount int    `json:"newer_count"`
	Outdated   int    `json:"outdated_count"`
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("locale %s: newer set has %d keys but classifier counts %d outdated",
		e.Locale, e.NewerCount, e.Outdated)
}

// FailedError is the aggregate returned when warnings were recorded.
type FailedError struct {
	Count int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("validation failed with %d errors", e.Count)
}

// IsMismatch returns true if err contains a MismatchError.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}

// IsFailed returns true if err contains a FailedError.
func IsFailed(err error) bool {
	var fe *FailedError
	return errors.As(err, &fe)
}

// Disagreement is a newer set member the classifier does not consider outdated.
type Disagreement struct {
	Locale string     `json:"locale"`
	ID     ir.KeyID   `json:"id"`
	Key    ir.ItemKey `json:"key"`
}

// Report is the outcome of one validation pass.
type Report struct {
	Locales       int              `json:"locales"`
	Checked       int              `json:"checked"`
	Mismatches    []*MismatchError `json:"mismatches,omitempty"`
	Disagreements []Disagreement   `json:"disagreements,omitempty"`

	// NeedsPrevious lists non-exempt keys whose baseline has no previous
	// value, sorted and without duplicates.
	NeedsPrevious []ir.ItemKey `json:"needs_previous,omitempty"`

	// ErrorCount counts every disagreement and every needs-previous
	// occurrence, including repeats of the same key across locales.
	ErrorCount int `json:"error_count"`
}

// Err returns nil for a clean report. Otherwise it joins every mismatch and,
// when warnings were counted, a *FailedError.
func (r *Report) Err() error {
	var errs []error
	for _, m := range r.Mismatches {
		errs = append(errs, m)
	}
	if r.ErrorCount > 0 {
		errs = append(errs, &FailedError{Count: r.ErrorCount})
	}
	return errors.Join(errs...)
}

// Validator checks newer sets against a Classifier.
type Validator struct {
	Classifier Classifier
	Logger     *slog.Logger
}

// Check visits every locale in ascending order and never stops early.
func (v *Validator) Check(newer map[string][]ir.ItemKey) *Report {
	logger := v.Logger
	if logger == nil {
		logger = slog.Default()
	}

	locales := make([]string, 0, len(newer))
	for locale := range newer {
		locales = append(locales, locale)
	}
	slices.Sort(locales)

	report := &Report{Locales: len(locales)}
	needs := make(map[ir.ItemKey]struct{})

	for _, locale := range locales {
		keys := slices.Clone(newer[locale])
		slices.Sort(keys)
		logger.Debug("checking locale", "locale", locale, "newer", len(keys))

		if want := v.Classifier.CountOutdated(locale); len(keys) != want {
			m := &MismatchError{Locale: locale, NewerCount: len(keys), Outdated: want}
			logger.Error("outdated count mismatch", "locale", locale, "newer", len(keys), "outdated", want)
			report.Mismatches = append(report.Mismatches, m)
		}

		for _, key := range keys {
			report.Checked++

			if !v.Classifier.IsOutdated(locale, key) {
				d := Disagreement{Locale: locale, ID: ir.KeyIDOf(key), Key: key}
				logger.Warn("classifier disagrees", "locale", locale, "id", int64(d.ID), "key", string(key))
				report.Disagreements = append(report.Disagreements, d)
				report.ErrorCount++
			}

			if v.Classifier.IsExempt(key) {
				continue
			}
			if prev, _ := v.Classifier.PreviousBaseline(key); prev == "" {
				needs[key] = struct{}{}
				report.ErrorCount++
			}
		}
	}

	for key := range needs {
		report.NeedsPrevious = append(report.NeedsPrevious, key)
	}
	slices.Sort(report.NeedsPrevious)
	if len(report.NeedsPrevious) > 0 {
		logger.Warn("keys need a previous baseline value", "count", len(report.NeedsPrevious))
	}

	return report
}
