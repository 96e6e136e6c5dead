// Package metrics counts run outcomes with Prometheus collectors and writes
// them to a node-exporter textfile after each run.
//
// A Recorder owns its own registry, so several recorders (one per test, or
// per run) never collide. All methods are safe on a nil *Recorder.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "showmark"

// Recorder holds the collectors for one process.
type Recorder struct {
	registry    *prometheus.Registry
	items       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	cache       *prometheus.CounterVec
	logins      *prometheus.CounterVec
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
}

// New registers showmark's collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items processed, by outcome status.",
		}, []string{"status"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Show id resolutions, by the step that settled them.",
		}, []string{"source"}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups, by operation and result.",
		}, []string{"operation", "result"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Tracker login attempts, by result.",
		}, []string{"result"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ItemOutcome counts one processed item.
func (r *Recorder) ItemOutcome(status string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(status).Inc()
}

// Resolution counts one settled resolution.
func (r *Recorder) Resolution(source string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(source).Inc()
}

// CacheLookup counts one response cache lookup.
func (r *Recorder) CacheLookup(operation string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(operation, result).Inc()
}

// Login counts one login attempt.
func (r *Recorder) Login(ok bool) {
	if r == nil {
		return
	}
	result := "failed"
	if ok {
		result = "succeeded"
	}
	r.logins.WithLabelValues(result).Inc()
}

// RunFinished records the completion time and duration of a run.
func (r *Recorder) RunFinished(finished time.Time, duration time.Duration) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(finished.Unix()))
	r.runDuration.Set(duration.Seconds())
}

// WriteTextfile writes every collector to path in the Prometheus text format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ItemsCounter returns the item counter for status, for assertions.
func (r *Recorder) ItemsCounter(status string) prometheus.Counter {
	return r.items.WithLabelValues(status)
}
