package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/births/internal/birth"
	"github.com/roach88/births/internal/index"
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/metrics"
	"github.com/roach88/births/internal/outdated"
	"github.com/roach88/births/internal/store"
	"github.com/roach88/births/internal/validate"
)

// RunRecorder persists run bookkeeping. *store.Store satisfies it.
type RunRecorder interface {
	BeginRun(ctx context.Context, run store.RunRecord) error
	FinishRun(ctx context.Context, run store.RunRecord) error
}

// Options configures one run.
type Options struct {
	Sequence ir.Sequence
	Source   store.Source

	// Baseline is the reference locale, resolved first.
	Baseline string

	// Target receives the binary indexes, Log the text reports.
	Target string
	Log    string

	// LocaleFilter narrows the compared locales when set.
	LocaleFilter *regexp.Regexp

	// Exempt lists keys that never need a previous baseline value.
	Exempt []*regexp.Regexp

	// PreviousOnly stops after the baseline's report and previous-value index.
	PreviousOnly bool

	Debug  bool
	Logger *slog.Logger

	// Runs, when set, records the run. RunIDs defaults to UUIDv7Generator.
	Runs   RunRecorder
	RunIDs RunIDGenerator

	// Metrics, when set, collects run metrics.
	Metrics *metrics.Run

	// Now defaults to time.Now.
	Now func() time.Time
}

// LocaleResult summarizes one compared locale.
type LocaleResult struct {
	Locale string `json:"locale"`
	Keys   int    `json:"keys"`
	Newer  int    `json:"newer"`
}

// Result summarizes a run. It is returned alongside a validation error so
// callers can still report what was written.
type Result struct {
	RunID        string           `json:"run_id"`
	Baseline     string           `json:"baseline"`
	BaselineKeys int              `json:"baseline_keys"`
	Locales      []LocaleResult   `json:"locales"`
	Skipped      []string         `json:"skipped,omitempty"`
	NewerTotal   int              `json:"newer_total"`
	PreviousPath string           `json:"previous_index"`
	NewerPath    string           `json:"newer_index,omitempty"`
	Validation   *validate.Report `json:"validation,omitempty"`

	// Newer maps each compared locale to its newer set.
	Newer map[string][]ir.ItemKey `json:"-"`
}

func (o *Options) check() error {
	switch {
	case o.Sequence.Len() == 0:
		return errors.New("no versions configured")
	case o.Source == nil:
		return errors.New("no snapshot source configured")
	case o.Baseline == "":
		return errors.New("no baseline locale configured")
	case o.Target == "":
		return errors.New("no target directory configured")
	case o.Log == "":
		return errors.New("no log directory configured")
	}
	return nil
}

// Run executes one full batch. Fatal errors abort immediately; a validation
// failure is returned after the complete pass together with the Result.
func Run(ctx context.Context, opts Options) (res *Result, err error) {
	if err := opts.check(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ids := opts.RunIDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	started := now()
	res = &Result{
		RunID:        ids.Generate(),
		Baseline:     opts.Baseline,
		Locales:      []LocaleResult{},
		PreviousPath: filepath.Join(opts.Target, index.PreviousFileName),
		Newer:        map[string][]ir.ItemKey{},
	}
	logger = logger.With("run", res.RunID)

	if opts.Runs != nil {
		if err := opts.Runs.BeginRun(ctx, store.RunRecord{
			ID:          res.RunID,
			Baseline:    opts.Baseline,
			Versions:    joinVersions(opts.Sequence),
			ToolVersion: ir.ToolVersion,
		}); err != nil {
			return nil, err
		}
	}
	defer func() {
		ok := err == nil
		if opts.Metrics != nil {
			opts.Metrics.Finish(now().Sub(started).Seconds(), now().Unix(), ok)
		}
		if opts.Runs == nil {
			return
		}
		if finishErr := opts.Runs.FinishRun(context.WithoutCancel(ctx), finishRecord(res, err)); finishErr != nil {
			if ok {
				err = finishErr
			} else {
				logger.Error("could not record run outcome", "error", finishErr)
			}
		}
	}()

	resolver := birth.NewResolver(birth.Config{
		Sequence: opts.Sequence,
		Source:   opts.Source,
		Logger:   logger,
		Debug:    opts.Debug,
	})

	logger.Info("resolving baseline",
		"locale", opts.Baseline,
		"newest", opts.Sequence.Newest(),
		"oldest", opts.Sequence.Oldest(),
	)
	baseline, err := resolver.Resolve(ctx, opts.Baseline)
	if err != nil {
		return res, fmt.Errorf("baseline: %w", err)
	}
	res.BaselineKeys = baseline.Len()
	if _, err := birth.WriteReport(opts.Log, baseline, nil); err != nil {
		return res, err
	}
	if err := index.WritePreviousFile(res.PreviousPath, baseline); err != nil {
		return res, err
	}
	if opts.Metrics != nil {
		opts.Metrics.ObserveLocale(opts.Baseline, baseline.Len(), -1)
	}
	logger.Info("wrote previous-value index", "path", res.PreviousPath, "keys", baseline.Len())

	if opts.PreviousOnly {
		return res, nil
	}

	all, err := opts.Source.Locales(ctx, opts.Sequence.Newest())
	if err != nil {
		return res, fmt.Errorf("list locales: %w", err)
	}
	locales := SelectLocales(all, opts.Baseline, opts.LocaleFilter)
	logger.Info("comparing locales", "selected", len(locales), "available", len(all))

	for _, locale := range locales {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		births, err := resolver.Resolve(ctx, locale)
		if errors.Is(err, birth.ErrLocaleNotFound) {
			logger.Warn("locale vanished from newest release", "locale", locale)
			res.Skipped = append(res.Skipped, locale)
			if opts.Metrics != nil {
				opts.Metrics.LocaleSkipped()
			}
			continue
		}
		if err != nil {
			return res, err
		}

		newer, err := birth.WriteReport(opts.Log, births, baseline)
		if err != nil {
			return res, err
		}
		res.Newer[locale] = newer
		res.NewerTotal += len(newer)
		res.Locales = append(res.Locales, LocaleResult{Locale: locale, Keys: births.Len(), Newer: len(newer)})
		if opts.Metrics != nil {
			opts.Metrics.ObserveLocale(locale, births.Len(), len(newer))
		}
	}

	res.NewerPath = filepath.Join(opts.Target, index.NewerFileName)
	if err := index.WriteNewerFile(res.NewerPath, res.Newer); err != nil {
		return res, err
	}
	logger.Info("wrote newer index", "path", res.NewerPath, "locales", len(res.Newer), "keys", res.NewerTotal)

	report, err := Check(res.NewerPath, res.PreviousPath, opts.Exempt, res.Newer, logger)
	if err != nil {
		return res, err
	}
	res.Validation = report
	if opts.Metrics != nil {
		opts.Metrics.ObserveValidation(len(report.Mismatches), len(report.Disagreements), len(report.NeedsPrevious))
	}
	return res, report.Err()
}

// Check loads the persisted indexes and validates newer against them.
// The returned error covers loading only; findings are in the report.
func Check(newerPath, previousPath string, exempt []*regexp.Regexp, newer map[string][]ir.ItemKey, logger *slog.Logger) (*validate.Report, error) {
	classifier, err := outdated.Load(newerPath, previousPath, exempt)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	// The newer index names the locales of the run that wrote it. Sets for
	// other locales, such as reports left over from an earlier run, are
	// ignored; an indexed locale without a set checks as empty.
	scoped := make(map[string][]ir.ItemKey, len(newer))
	for _, locale := range classifier.Locales() {
		scoped[locale] = newer[locale]
	}
	for locale := range newer {
		if _, ok := scoped[locale]; !ok {
			logger.Debug("ignoring locale not in newer index", "locale", locale)
		}
	}

	v := &validate.Validator{Classifier: classifier, Logger: logger}
	return v.Check(scoped), nil
}

func joinVersions(seq ir.Sequence) string {
	names := make([]string, 0, seq.Len())
	for _, v := range seq.Versions() {
		names = append(names, string(v))
	}
	return strings.Join(names, ",")
}

func finishRecord(res *Result, err error) store.RunRecord {
	rec := store.RunRecord{
		ID:         res.RunID,
		Status:     store.RunStatusSucceeded,
		Locales:    len(res.Locales),
		NewerTotal: res.NewerTotal,
	}
	if res.Validation != nil {
		rec.ErrorCount = res.Validation.ErrorCount + len(res.Validation.Mismatches)
	}
	if err != nil {
		rec.Status = store.RunStatusFailed
		rec.Message = err.Error()
	}
	return rec
}
