// Package metrics counts conversion activity and exports it in the
// Prometheus text format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "walog"

// Metrics holds the counters for one conversion run. Each run gets its own
// registry so repeated runs in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	LinesTotal       *prometheus.CounterVec
	RecordsTotal     *prometheus.CounterVec
	ExtractionsTotal *prometheus.CounterVec
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates and registers the run counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "lines_total",
				Help:      "Physical log lines read, by classification.",
			},
			[]string{"kind"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_total",
				Help:      "Records written, by log type.",
			},
			[]string{"type"},
		),
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "extractions_total",
				Help:      "Records with a non-empty extracted field, by field.",
			},
			[]string{"field"},
		),
		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of the last conversion.",
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last conversion finished.",
			},
		),
	}

	m.registry.MustRegister(
		m.LinesTotal,
		m.RecordsTotal,
		m.ExtractionsTotal,
		m.RunDuration,
		m.LastRunTimestamp,
	)
	return m
}

// Registry exposes the run's registry, e.g. for tests or an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the node_exporter textfile
// collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
