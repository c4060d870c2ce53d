// Package metrics counts lifecycle events on a private prometheus registry.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "glossa_plugins"

// Metrics holds the lifecycle counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	installs       *prometheus.CounterVec
	uninstalls     prometheus.Counter
	upgradesStaged prometheus.Counter
	scanResults    *prometheus.CounterVec
	duplicates     prometheus.Counter
	sweeps         *prometheus.CounterVec
	registered     prometheus.Gauge
}

// New creates the counters and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installs_total",
			Help:      "Install attempts by outcome.",
		}, []string{"outcome"}),
		uninstalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uninstalls_total",
			Help:      "Packages marked for deletion by uninstall.",
		}),
		upgradesStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upgrades_staged_total",
			Help:      "Upgrades staged for the next start.",
		}),
		scanResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_results_total",
			Help:      "Packages seen by discovery, by load status.",
		}, []string{"status"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_duplicates_total",
			Help:      "Packages skipped by discovery because a newer copy exists.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_sweeps_total",
			Help:      "Deferred actions completed by discovery.",
		}, []string{"action"}),
		registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered",
			Help:      "Packages currently in the registry.",
		}),
	}
	m.registry.MustRegister(m.installs, m.uninstalls, m.upgradesStaged, m.scanResults, m.duplicates, m.sweeps, m.registered)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Install records an install outcome ("success", "failure", "upgrade_required").
func (m *Metrics) Install(outcome string) {
	if m != nil {
		m.installs.WithLabelValues(outcome).Inc()
	}
}

// Uninstall records an uninstall.
func (m *Metrics) Uninstall() {
	if m != nil {
		m.uninstalls.Inc()
	}
}

// UpgradeStaged records a staged upgrade.
func (m *Metrics) UpgradeStaged() {
	if m != nil {
		m.upgradesStaged.Inc()
	}
}

// ScanResult records one discovery result ("loaded" or "failed").
func (m *Metrics) ScanResult(status string) {
	if m != nil {
		m.scanResults.WithLabelValues(status).Inc()
	}
}

// Duplicates records packages dropped by deduplication.
func (m *Metrics) Duplicates(n int) {
	if m != nil && n > 0 {
		m.duplicates.Add(float64(n))
	}
}

// Sweep records a completed deferred action ("delete" or "upgrade").
func (m *Metrics) Sweep(action string) {
	if m != nil {
		m.sweeps.WithLabelValues(action).Inc()
	}
}

// SetRegistered records the registry size.
func (m *Metrics) SetRegistered(n int) {
	if m != nil {
		m.registered.Set(float64(n))
	}
}

// Sample is one gathered series.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers every series with its current value, sorted by name.
func (m *Metrics) Snapshot() ([]Sample, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: formatLabels(metric.GetLabel()),
				Value:  value(mf.GetType(), metric),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

// WriteTextfile writes the current values in the text exposition format,
// for pickup by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func value(t dto.MetricType, metric *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return metric.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return metric.GetGauge().GetValue()
	}
	return 0
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
