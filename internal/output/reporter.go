package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/torosent/docloader/internal/metrics"
)

// Source provides point-in-time outcome tables.
type Source interface {
	Snapshot() metrics.ResultTable
}

// Snapshot is one periodic reading of the outcome table.
type Snapshot struct {
	At       time.Time
	Elapsed  time.Duration
	Outcomes metrics.ResultTable
}

// Sink consumes snapshots. Emit is called from the reporter goroutine only.
type Sink interface {
	Emit(s Snapshot)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Snapshot)

func (f SinkFunc) Emit(s Snapshot) { f(s) }

// Reporter periodically snapshots a Source and fans the reading out to its sinks.
type Reporter struct {
	source Source
	sinks  []Sink

	mu    sync.Mutex
	start time.Time
	ticks int64
}

func NewReporter(source Source, sinks ...Sink) *Reporter {
	return &Reporter{source: source, sinks: sinks, start: time.Now()}
}

// Run emits a snapshot every interval until ctx is done. Cancellation is the normal
// way to stop it and is not reported as an error.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", interval)
	}
	r.mu.Lock()
	r.start = time.Now()
	r.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.emit(now)
		}
	}
}

// Flush emits one snapshot immediately.
func (r *Reporter) Flush() {
	r.emit(time.Now())
}

// Ticks returns how many snapshots have been emitted.
func (r *Reporter) Ticks() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

func (r *Reporter) emit(now time.Time) {
	r.mu.Lock()
	r.ticks++
	elapsed := now.Sub(r.start)
	r.mu.Unlock()

	snap := Snapshot{At: now, Elapsed: elapsed, Outcomes: r.source.Snapshot()}
	for _, sink := range r.sinks {
		sink.Emit(snap)
	}
}
