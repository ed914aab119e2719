package output

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/torosent/docloader/internal/metrics"
)

type recordingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingSink) Emit(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestReporterEmitsUntilCanceled(t *testing.T) {
	results := metrics.NewResults()
	results.Add(metrics.OutcomeSuccess, 7)
	sink := &recordingSink{}
	r := NewReporter(results, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	if err := r.Run(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("Run() error = %v, want nil on cancellation", err)
	}

	if got := sink.count(); got < 2 {
		t.Fatalf("snapshots = %d, want at least 2", got)
	}
	if int64(sink.count()) != r.Ticks() {
		t.Errorf("Ticks() = %d, sink saw %d", r.Ticks(), sink.count())
	}
	first := sink.snaps[0]
	if first.Outcomes[metrics.OutcomeSuccess] != 7 {
		t.Errorf("snapshot outcomes = %v, want success 7", first.Outcomes)
	}
	if first.Elapsed <= 0 {
		t.Errorf("snapshot elapsed = %s, want > 0", first.Elapsed)
	}
}

func TestReporterSnapshotsAreCopies(t *testing.T) {
	results := metrics.NewResults()
	results.Increment(metrics.OutcomeSuccess)
	sink := &recordingSink{}
	r := NewReporter(results, sink)

	r.Flush()
	results.Increment(metrics.OutcomeSuccess)
	r.Flush()

	if sink.snaps[0].Outcomes[metrics.OutcomeSuccess] != 1 {
		t.Errorf("first snapshot changed after later increments: %v", sink.snaps[0].Outcomes)
	}
	if sink.snaps[1].Outcomes[metrics.OutcomeSuccess] != 2 {
		t.Errorf("second snapshot = %v, want success 2", sink.snaps[1].Outcomes)
	}
}

func TestReporterFansOutToAllSinks(t *testing.T) {
	results := metrics.NewResults()
	a, b := &recordingSink{}, &recordingSink{}
	var calls int
	r := NewReporter(results, a, b, SinkFunc(func(Snapshot) { calls++ }))

	r.Flush()

	if a.count() != 1 || b.count() != 1 || calls != 1 {
		t.Errorf("sinks saw %d/%d/%d snapshots, want 1 each", a.count(), b.count(), calls)
	}
}

func TestReporterRejectsNonPositiveInterval(t *testing.T) {
	r := NewReporter(metrics.NewResults())
	for _, interval := range []time.Duration{0, -time.Second} {
		if err := r.Run(context.Background(), interval); err == nil {
			t.Errorf("Run(%s) error = nil, want error", interval)
		}
	}
}

func TestReporterStopsPromptlyOnCancel(t *testing.T) {
	r := NewReporter(metrics.NewResults())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if r.Ticks() != 0 {
		t.Errorf("Ticks() = %d, want 0", r.Ticks())
	}
}
