// Package metrics aggregates operation outcomes and latencies for a load run.
//
// # Results
//
// [Results] is the shared outcome table. Every dispatched operation increments exactly
// one label: "success" or the error kind returned by [Classify]. Labels are not known in
// advance, so the table grows on first use:
//
//	results := metrics.NewResults()
//	results.Increment(metrics.OutcomeSuccess)
//	table := results.Snapshot() // point-in-time copy
//
// # Collector
//
// [Collector] wraps a Results table with an HDR latency histogram and is what the
// dispatcher records into:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//	collector.RecordError(latency, err)
//	stats := collector.Stats(elapsed)
//
// # Thread Safety
//
// Increments of an existing label only take a read lock and an atomic add; the write
// lock is held just long enough to insert a label seen for the first time. Snapshots
// copy the table under the read lock and never block writers for longer than the copy.
//
// # Prometheus
//
// [PrometheusCollector] exposes the live table and latency quantiles to a Prometheus
// registry.
package metrics
