package runner

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/store"
)

// QueryOptions configure a QueryWorkload.
type QueryOptions struct {
	Workers     int
	Statement   string
	ExpectField string        // gjson path every returned row must contain
	Iterations  int           // executions per worker (0 means until cancelled)
	RunTime     time.Duration // overall time limit (0 means no cap)
	OpTimeout   time.Duration
}

// QueryWorkload repeatedly executes one statement from several workers. Every
// execution yields exactly one outcome.
type QueryWorkload struct {
	opt      QueryOptions
	querier  store.Querier
	recorder Recorder
	logger   log.FieldLogger
}

func NewQueryWorkload(opt QueryOptions, querier store.Querier, recorder Recorder, logger log.FieldLogger) (*QueryWorkload, error) {
	if opt.Statement == "" {
		return nil, fmt.Errorf("query workload requires a statement")
	}
	if querier == nil {
		return nil, fmt.Errorf("query workload requires a querier")
	}
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &QueryWorkload{opt: opt, querier: querier, recorder: recorder, logger: logger}, nil
}

// Run executes until every worker has done its iterations or ctx is done.
func (q *QueryWorkload) Run(ctx context.Context) Result {
	start := time.Now()
	if q.opt.RunTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opt.RunTime)
		defer cancel()
	}

	counts := make([]int64, q.opt.Workers)
	var g errgroup.Group
	for w := 0; w < q.opt.Workers; w++ {
		g.Go(func() error {
			for n := 0; ctx.Err() == nil && (q.opt.Iterations <= 0 || n < q.opt.Iterations); n++ {
				latency, err := q.execute(ctx)
				q.recorder.RecordError(latency, err)
				counts[w]++
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Duration: time.Since(start)}
	for _, c := range counts {
		res.Operations += c
	}
	q.logger.WithField("operations", res.Operations).Info("query workload finished")
	return res
}

func (q *QueryWorkload) execute(ctx context.Context) (time.Duration, error) {
	ctx = context.WithoutCancel(ctx)
	if q.opt.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opt.OpTimeout)
		defer cancel()
	}
	start := time.Now()
	rows, err := q.querier.Query(ctx, q.opt.Statement)
	latency := time.Since(start)
	if err != nil {
		return latency, err
	}
	return latency, CheckRows(rows, q.opt.ExpectField)
}

// CheckRows verifies every row contains field. An empty field accepts anything.
func CheckRows(rows [][]byte, field string) error {
	if field == "" {
		return nil
	}
	for i, row := range rows {
		if !gjson.GetBytes(row, field).Exists() {
			return fmt.Errorf("row %d: %w %q", i, metrics.ErrMissingField, field)
		}
	}
	return nil
}
