// Package metrics collects rebuild, capture and alignment statistics on a
// private Prometheus registry
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "gobim"

// Metrics implements the observer hooks of the batch, panorama and align
// packages
type Metrics struct {
	registry *prometheus.Registry

	rebuilds        prometheus.Counter
	rebuildDuration prometheus.Histogram
	groups          prometheus.Gauge
	skipped         prometheus.Counter
	captures        prometheus.Counter
	captureDuration prometheus.Histogram
	solves          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "rebuilds_total",
			Help:      "Number of batch rebuilds.",
		}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of batch rebuilds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "groups",
			Help:      "Number of installed batch groups.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "skipped_buckets_total",
			Help:      "Number of color buckets left out because they failed to merge.",
		}),
		captures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "panorama",
			Name:      "captures_total",
			Help:      "Number of panorama captures.",
		}),
		captureDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "panorama",
			Name:      "capture_duration_seconds",
			Help:      "Duration of panorama captures.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "align",
			Name:      "solves_total",
			Help:      "Number of alignment solves by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.rebuilds,
		m.rebuildDuration,
		m.groups,
		m.skipped,
		m.captures,
		m.captureDuration,
		m.solves,
	)
	return m
}

// Registry exposes the registry for HTTP handlers or tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRebuild records one batch rebuild
func (m *Metrics) ObserveRebuild(duration time.Duration, groups, skipped int) {
	m.rebuilds.Inc()
	m.rebuildDuration.Observe(duration.Seconds())
	m.groups.Set(float64(groups))
	m.skipped.Add(float64(skipped))
}

// ObserveCapture records one panorama capture
func (m *Metrics) ObserveCapture(duration time.Duration) {
	m.captures.Inc()
	m.captureDuration.Observe(duration.Seconds())
}

// ObserveSolve records one alignment attempt
func (m *Metrics) ObserveSolve(ok bool) {
	outcome := "applied"
	if !ok {
		outcome = "rejected"
	}
	m.solves.WithLabelValues(outcome).Inc()
}

// Gather returns the current metric families sorted by name
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

// Value returns the value of a counter or gauge family, summed over label
// sets, or the sample count of a histogram
func Value(f *dto.MetricFamily) float64 {
	var total float64
	for _, metric := range f.GetMetric() {
		switch f.GetType() {
		case dto.MetricType_COUNTER:
			total += metric.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			total += metric.GetGauge().GetValue()
		case dto.MetricType_HISTOGRAM:
			total += float64(metric.GetHistogram().GetSampleCount())
		}
	}
	return total
}

// Dump writes one line per metric in "name{labels} value" form
func (m *Metrics) Dump(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return err
	}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := f.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			var value string
			switch f.GetType() {
			case dto.MetricType_COUNTER:
				value = fmt.Sprintf("%g", metric.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				value = fmt.Sprintf("%g", metric.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				value = fmt.Sprintf("count=%d sum=%.6fs", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
