// Package metrics exposes run counters to Prometheus, either pushed to a
// Pushgateway after a one-shot run or scraped from the serve-mode server.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics of a run.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal            *prometheus.CounterVec // labels: status=ok|failed
	RunDuration          prometheus.Histogram
	LastRunTimestamp     prometheus.Gauge
	ClassificationsTotal *prometheus.CounterVec // labels: label
	ExitsTotal           *prometheus.CounterVec // labels: action
	SymbolFailuresTotal  *prometheus.CounterVec // labels: kind
	NotifyFailuresTotal  prometheus.Counter
	OpenPositions        prometheus.Gauge
}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_runs_total",
			Help: "Completed runs by outcome",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swingsentinel_run_duration_seconds",
			Help:    "Wall time of one run",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingsentinel_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_classifications_total",
			Help: "Classifications produced (by label)",
		}, []string{"label"}),
		ExitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_exits_total",
			Help: "Positions closed (by action)",
		}, []string{"action"}),
		SymbolFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_symbol_failures_total",
			Help: "Symbols skipped in a run (by failure kind)",
		}, []string{"kind"}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swingsentinel_notification_failures_total",
			Help: "Messages the notifier failed to deliver",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingsentinel_open_positions",
			Help: "Open positions after the last run",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.LastRunTimestamp,
		m.ClassificationsTotal,
		m.ExitsTotal,
		m.SymbolFailuresTotal,
		m.NotifyFailuresTotal,
		m.OpenPositions,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRun records the outcome and duration of a finished run.
func (m *Metrics) ObserveRun(started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(time.Since(started).Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
}

// Push sends the current values to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
