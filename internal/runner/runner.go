package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/docloader/internal/document"
	"github.com/torosent/docloader/internal/store"
)

// Result captures execution summary.
type Result struct {
	RunID      string
	Batches    int64
	Operations int64
	Duration   time.Duration
}

// Runner partitions the id range across parallel Dispatchers sharing one Recorder.
type Runner struct {
	opt         Options
	runID       string
	dispatchers []*Dispatcher
	ranges      []Range
	logger      log.FieldLogger
}

// New builds one Dispatcher per worker. Generator construction errors are returned
// before anything is dispatched.
func New(opt Options, targets *store.Set, factory document.Factory, recorder Recorder, logger log.FieldLogger) (*Runner, error) {
	opt.normalize()
	if targets == nil {
		return nil, fmt.Errorf("runner requires a target set")
	}
	if factory == nil {
		return nil, fmt.Errorf("runner requires a document factory")
	}
	if recorder == nil {
		return nil, fmt.Errorf("runner requires a recorder")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	runID := NewRunID()
	logger = logger.WithField("run_id", runID)

	r := &Runner{
		opt:    opt,
		runID:  runID,
		ranges: Partition(opt.NumDocs, opt.Workers, opt.DocSize, opt.RunForTime),
		logger: logger,
	}
	for w := range r.ranges {
		seed := opt.Seed + int64(w)
		gen, err := factory(seed)
		if err != nil {
			return nil, fmt.Errorf("worker %d generator: %w", w, err)
		}
		wopt := opt
		wopt.Seed = seed
		r.dispatchers = append(r.dispatchers, NewDispatcher(wopt, targets, gen, recorder, logger.WithField("worker", w)))
	}
	return r, nil
}

// RunID identifies this run in logs and reports.
func (r *Runner) RunID() string {
	return r.runID
}

// Run starts every Dispatcher and waits for all of them. Cancellation, including the
// RunTime deadline, is the normal way a time-bounded run ends and is not an error.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()

	if r.opt.RunForTime && r.opt.RunTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opt.RunTime)
		defer cancel()
	}

	results := make([]DispatchResult, len(r.dispatchers))
	var g errgroup.Group
	for w, d := range r.dispatchers {
		g.Go(func() error {
			results[w] = d.Run(ctx, r.ranges[w])
			return nil
		})
	}
	_ = g.Wait()

	res := Result{RunID: r.runID, Duration: time.Since(start)}
	for _, dr := range results {
		res.Batches += dr.Batches
		res.Operations += dr.Operations
	}
	r.logger.WithFields(log.Fields{
		"batches":    res.Batches,
		"operations": res.Operations,
		"duration":   res.Duration,
	}).Info("run finished")
	return res
}

// Partition splits [0, numDocs) into contiguous ranges, one per worker. The last
// worker also takes the remainder so the whole range is covered.
func Partition(numDocs, workers, docSize int, runForTime bool) []Range {
	if workers <= 0 {
		workers = 1
	}
	per := numDocs / workers
	ranges := make([]Range, workers)
	for w := 0; w < workers; w++ {
		count := per
		if w == workers-1 {
			count = numDocs - per*(workers-1)
		}
		ranges[w] = Range{
			Start:      w * per,
			Count:      count,
			DocSize:    docSize,
			RunForTime: runForTime,
		}
	}
	return ranges
}

// NewRunID returns a time-ordered ULID.
func NewRunID() string {
	return ulid.Make().String()
}
