package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "docloader"

// PrometheusCollector exports a Collector's live outcome table and latency quantiles.
type PrometheusCollector struct {
	source     *Collector
	operations *prometheus.Desc
	latency    *prometheus.Desc
	throughput *prometheus.Desc
}

// NewPrometheusCollector wraps source. runID is attached to every series as a const label.
func NewPrometheusCollector(source *Collector, runID string) *PrometheusCollector {
	constLabels := prometheus.Labels{"run_id": runID}
	return &PrometheusCollector{
		source: source,
		operations: prometheus.NewDesc(
			metricPrefix+"_operations_total",
			"Operations dispatched by outcome.",
			[]string{"outcome"}, constLabels,
		),
		latency: prometheus.NewDesc(
			metricPrefix+"_operation_latency_seconds",
			"Operation latency quantiles.",
			[]string{"quantile"}, constLabels,
		),
		throughput: prometheus.NewDesc(
			metricPrefix+"_operations_per_second",
			"Average operations per second since the run started.",
			nil, constLabels,
		),
	}
}

func (c *PrometheusCollector) Describe(desc chan<- *prometheus.Desc) {
	desc <- c.operations
	desc <- c.latency
	desc <- c.throughput
}

func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats(c.source.Elapsed())
	for label, count := range stats.Outcomes {
		ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(count), label)
	}
	quantiles := []struct {
		name  string
		value float64
	}{
		{"0.5", stats.P50Latency.Seconds()},
		{"0.9", stats.P90Latency.Seconds()},
		{"0.95", stats.P95Latency.Seconds()},
		{"0.99", stats.P99Latency.Seconds()},
	}
	for _, q := range quantiles {
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, q.value, q.name)
	}
	ch <- prometheus.MustNewConstMetric(c.throughput, prometheus.GaugeValue, stats.OpsPerSec)
}
