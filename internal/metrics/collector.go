package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-operation outcomes and latency in a thread-safe manner.
type Collector struct {
	results *Results

	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
	samples    int64
	start      time.Time
}

// Stats represents aggregated metrics.
type Stats struct {
	Total       int64         `json:"total" yaml:"total"`
	Successes   int64         `json:"successes" yaml:"successes"`
	Failures    int64         `json:"failures" yaml:"failures"`
	Outcomes    ResultTable   `json:"outcomes" yaml:"outcomes"`
	MinLatency  time.Duration `json:"-" yaml:"-"`
	MaxLatency  time.Duration `json:"-" yaml:"-"`
	MeanLatency time.Duration `json:"-" yaml:"-"`
	P50Latency  time.Duration `json:"-" yaml:"-"`
	P90Latency  time.Duration `json:"-" yaml:"-"`
	P95Latency  time.Duration `json:"-" yaml:"-"`
	P99Latency  time.Duration `json:"-" yaml:"-"`
	Duration    time.Duration `json:"-" yaml:"-"`
	OpsPerSec   float64       `json:"ops_per_sec" yaml:"ops_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms" yaml:"duration_ms"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		results: NewResults(),
		hist:    h,
		start:   time.Now(),
	}
}

// Start resets the clock used by Elapsed.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Results exposes the underlying outcome table.
func (c *Collector) Results() *Results {
	return c.results
}

// Snapshot returns a point-in-time copy of the outcome table.
func (c *Collector) Snapshot() ResultTable {
	return c.results.Snapshot()
}

// Record counts one outcome label and its latency.
func (c *Collector) Record(label string, latency time.Duration) {
	c.results.Increment(label)
	c.observe(latency)
}

// RecordError classifies err and records it. A nil error counts as success.
func (c *Collector) RecordError(latency time.Duration, err error) {
	c.Record(Classify(err), latency)
}

func (c *Collector) observe(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency
	c.samples++

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	table := c.results.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	total := table.Total()
	stats := Stats{
		Total:      total,
		Successes:  table[OutcomeSuccess],
		Failures:   table.Failures(),
		Outcomes:   table,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if c.samples > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / c.samples)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P95LatencyMs = toMillis(stats.P95Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 && total > 0 {
		stats.OpsPerSec = float64(total) / elapsed.Seconds()
	}

	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
