// Package metrics collects per-run counters and writes them in the Prometheus
// text format for a node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run holds the metrics for one batch run. Each run owns its registry, so
// nothing leaks between runs in the same process.
type Run struct {
	registry *prometheus.Registry

	keysResolved    *prometheus.CounterVec
	newerKeys       *prometheus.GaugeVec
	localesSkipped  prometheus.Counter
	validationError *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	duration        prometheus.Gauge
}

// NewRun registers a fresh set of run metrics.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Run{
		registry: reg,
		keysResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "births_keys_resolved_total",
			Help: "Keys resolved per locale",
		}, []string{"locale"}),
		newerKeys: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "births_newer_keys",
			Help: "Size of each locale's newer set",
		}, []string{"locale"}),
		localesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "births_locales_skipped_total",
			Help: "Locales absent at the newest release",
		}),
		validationError: f.NewCounterVec(prometheus.CounterOpts{
			Name: "births_validation_errors_total",
			Help: "Validation findings by kind",
		}, []string{"kind"}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "births_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "births_run_duration_seconds",
			Help: "Wall time of the run",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveLocale records one resolved locale. newer is negative for the
// baseline, which has no newer set.
func (r *Run) ObserveLocale(locale string, resolved, newer int) {
	r.keysResolved.WithLabelValues(locale).Add(float64(resolved))
	if newer >= 0 {
		r.newerKeys.WithLabelValues(locale).Set(float64(newer))
	}
}

// LocaleSkipped counts a locale that had no snapshot at the newest release.
func (r *Run) LocaleSkipped() {
	r.localesSkipped.Inc()
}

// ObserveValidation records validation findings.
func (r *Run) ObserveValidation(mismatches, disagreements, needsPrevious int) {
	r.validationError.WithLabelValues("mismatch").Add(float64(mismatches))
	r.validationError.WithLabelValues("disagreement").Add(float64(disagreements))
	r.validationError.WithLabelValues("needs_previous").Add(float64(needsPrevious))
}

// Finish stamps duration and, on success, the success timestamp.
func (r *Run) Finish(seconds float64, succeededAt int64, ok bool) {
	r.duration.Set(seconds)
	if ok {
		r.lastSuccess.Set(float64(succeededAt))
	}
}

// WriteTextfile writes every metric to path atomically.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
