// Package monitoring exposes Prometheus metrics for the persistence engine.
//
// Every component accepts a *Metrics handle that may be nil; all record
// methods are nil-safe so tests and embedders that do not scrape metrics can
// simply pass nothing.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	// Durable store
	WritesTotal    *prometheus.CounterVec // outcome: ok|error
	WriteBytes     prometheus.Counter
	ReadsTotal     *prometheus.CounterVec // outcome: ok|not_found|parse_error
	BackupFailures prometheus.Counter

	// Coalescer
	DebouncedWrites  prometheus.Counter
	SupersededWrites prometheus.Counter
	PendingWrites    prometheus.Gauge
	FlushDuration    prometheus.Histogram

	// Migrations
	MigrationsApplied prometheus.Counter
	MigrationsFailed  prometheus.Counter

	// Restoration
	RestorationsTotal    prometheus.Counter
	TerminalsRecreated   prometheus.Counter
	RestorationFallbacks prometheus.Counter
}

// New creates the metric set and registers it with reg. Passing
// prometheus.DefaultRegisterer wires the standard scrape endpoint; tests use
// prometheus.NewRegistry for isolation.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termul_store_writes_total",
			Help: "Durable store write attempts by outcome",
		}, []string{"outcome"}),
		WriteBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_store_write_bytes_total",
			Help: "Bytes committed by the durable store",
		}),
		ReadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termul_store_reads_total",
			Help: "Durable store reads by outcome",
		}, []string{"outcome"}),
		BackupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_store_backup_failures_total",
			Help: "Best-effort backup renames that failed",
		}),
		DebouncedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_coalescer_debounced_total",
			Help: "Writes scheduled through the coalescer",
		}),
		SupersededWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_coalescer_superseded_total",
			Help: "Pending writes replaced before reaching disk",
		}),
		PendingWrites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "termul_coalescer_pending",
			Help: "Pending writes with a live debounce timer",
		}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "termul_coalescer_flush_seconds",
			Help:    "FlushAll duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		MigrationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_migrations_applied_total",
			Help: "Schema migrations applied successfully",
		}),
		MigrationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_migrations_failed_total",
			Help: "Schema migrations that returned an error",
		}),
		RestorationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_restorations_total",
			Help: "Project layout restorations performed",
		}),
		TerminalsRecreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_terminals_recreated_total",
			Help: "Live terminals recreated from persisted layouts",
		}),
		RestorationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "termul_restoration_fallbacks_total",
			Help: "Restorations that fell back to a default terminal",
		}),
	}

	reg.MustRegister(
		m.WritesTotal, m.WriteBytes, m.ReadsTotal, m.BackupFailures,
		m.DebouncedWrites, m.SupersededWrites, m.PendingWrites, m.FlushDuration,
		m.MigrationsApplied, m.MigrationsFailed,
		m.RestorationsTotal, m.TerminalsRecreated, m.RestorationFallbacks,
	)
	return m
}

// RecordWrite records a store write attempt.
func (m *Metrics) RecordWrite(bytes int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.WritesTotal.WithLabelValues("error").Inc()
		return
	}
	m.WritesTotal.WithLabelValues("ok").Inc()
	m.WriteBytes.Add(float64(bytes))
}

// RecordRead records a store read by outcome label.
func (m *Metrics) RecordRead(outcome string) {
	if m == nil {
		return
	}
	m.ReadsTotal.WithLabelValues(outcome).Inc()
}

// RecordBackupFailure records a failed best-effort backup rename.
func (m *Metrics) RecordBackupFailure() {
	if m == nil {
		return
	}
	m.BackupFailures.Inc()
}

// RecordDebounced records a scheduled debounced write, superseded reports
// whether it replaced an earlier pending document for the same key.
func (m *Metrics) RecordDebounced(superseded bool) {
	if m == nil {
		return
	}
	m.DebouncedWrites.Inc()
	if superseded {
		m.SupersededWrites.Inc()
	}
}

// SetPending updates the pending-writes gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingWrites.Set(float64(n))
}

// ObserveFlush records a FlushAll duration.
func (m *Metrics) ObserveFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.FlushDuration.Observe(d.Seconds())
}

// RecordMigration records one migration outcome.
func (m *Metrics) RecordMigration(success bool) {
	if m == nil {
		return
	}
	if success {
		m.MigrationsApplied.Inc()
	} else {
		m.MigrationsFailed.Inc()
	}
}

// RecordRestoration records a completed project restoration.
func (m *Metrics) RecordRestoration(recreated int, fallback bool) {
	if m == nil {
		return
	}
	m.RestorationsTotal.Inc()
	m.TerminalsRecreated.Add(float64(recreated))
	if fallback {
		m.RestorationFallbacks.Inc()
	}
}
