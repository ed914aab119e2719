package runner

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/torosent/docloader/internal/document"
	"github.com/torosent/docloader/internal/store"
)

// Recorder receives exactly one outcome per dispatched work item.
type Recorder interface {
	RecordError(latency time.Duration, err error)
}

// Range is the slice of the id space one Dispatcher owns.
type Range struct {
	Start      int
	Count      int
	DocSize    int
	RunForTime bool
}

// DispatchResult summarizes one Dispatcher run.
type DispatchResult struct {
	Batches    int64
	Operations int64
	Wraps      int64
}

// Dispatcher issues work items in fixed-size concurrent batches. Batches are strictly
// sequential and cancellation is only observed between them.
type Dispatcher struct {
	opt       Options
	targets   *store.Set
	generator document.Generator
	recorder  Recorder
	pacer     pacer
	logger    log.FieldLogger
}

func NewDispatcher(opt Options, targets *store.Set, generator document.Generator, recorder Recorder, logger log.FieldLogger) *Dispatcher {
	opt.normalize()
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Dispatcher{
		opt:       opt,
		targets:   targets,
		generator: generator,
		recorder:  recorder,
		pacer:     newPacer(opt, opt.Seed),
		logger:    logger,
	}
}

// Run dispatches the range until it is exhausted or, when RunForTime is set, until ctx
// is done. The batch in flight when ctx is cancelled is always completed.
func (d *Dispatcher) Run(ctx context.Context, r Range) DispatchResult {
	var res DispatchResult
	if r.Count <= 0 {
		return res
	}

	end := r.Start + r.Count
	i := r.Start
	for ctx.Err() == nil && (i < end || r.RunForTime) {
		batchEnd := min(i+d.opt.BatchSize, end)

		var doc interface{}
		if d.opt.Operation.NeedsDocument() {
			doc = d.generator.Generate(r.DocSize)
		}
		d.runBatch(ctx, i, batchEnd, doc)

		res.Batches++
		res.Operations += int64(batchEnd - i)
		i = batchEnd
		if r.RunForTime && i >= end {
			i = r.Start
			res.Wraps++
		}
	}
	return res
}

// runBatch issues [start, end) concurrently and records every outcome once all have
// returned. Operations run detached from ctx cancellation.
func (d *Dispatcher) runBatch(ctx context.Context, start, end int, doc interface{}) {
	opCtx := context.WithoutCancel(ctx)
	n := end - start
	errs := make([]error, n)
	latencies := make([]time.Duration, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for idx := 0; idx < n; idx++ {
		seq := start + idx
		if d.pacer != nil {
			if err := d.pacer.Wait(opCtx); err != nil {
				d.logger.WithField("seq", seq).WithError(err).Debug("pacer wait failed, issuing unpaced")
			}
		}
		item := WorkItem{
			Seq: seq,
			Key: Key(d.opt.KeyPrefix, seq),
			Op:  d.opt.Operation,
			Doc: doc,
		}
		go func(idx int) {
			defer wg.Done()
			latencies[idx], errs[idx] = d.execute(opCtx, item)
		}(idx)
	}
	wg.Wait()

	var batchErr *multierror.Error
	for idx := range errs {
		d.recorder.RecordError(latencies[idx], errs[idx])
		if errs[idx] != nil {
			batchErr = multierror.Append(batchErr, errs[idx])
		}
	}
	if err := batchErr.ErrorOrNil(); err != nil {
		d.logger.WithFields(log.Fields{
			"start":    start,
			"end":      end,
			"failures": batchErr.Len(),
		}).Debugf("batch completed with failures: %v", err)
	}
}

func (d *Dispatcher) execute(ctx context.Context, item WorkItem) (time.Duration, error) {
	if d.opt.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opt.OpTimeout)
		defer cancel()
	}
	target := d.targets.Resolve(item.Seq)
	start := time.Now()
	err := item.Execute(ctx, target)
	return time.Since(start), err
}
