package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/docloader/internal/config"
	"github.com/torosent/docloader/internal/dashboard"
	"github.com/torosent/docloader/internal/document"
	"github.com/torosent/docloader/internal/logging"
	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/output"
	"github.com/torosent/docloader/internal/runner"
	"github.com/torosent/docloader/internal/store"
	"github.com/torosent/docloader/internal/threshold"
	"github.com/torosent/docloader/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// ErrThresholdsFailed is returned when at least one threshold did not hold.
var ErrThresholdsFailed = errors.New("one or more thresholds failed")

// workload is satisfied by both the KV runner and the query workload.
type workload interface {
	Run(ctx context.Context) runner.Result
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		return err
	}
	logger := log.StandardLogger()
	if cfg.LogFile != "" {
		logFile, err := logging.AddFile(logger, cfg.LogFile, cfg.LogFileLevel, time.Now())
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.WithError(err).Warn("closing backend failed")
		}
	}()

	targets, err := store.NewSet(wrapTargets(be.targets, cfg, provider, logger)...)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	runID, wl, err := newWorkload(cfg, targets, wrapQuerier(be.querier, provider), collector, logger)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run_id":   runID,
		"backend":  cfg.Backend,
		"workload": cfg.Workload,
		"targets":  targets.Len(),
	}).Info("starting run")

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboardConfig(cfg, runID, targets), stopRun)
		if err != nil {
			return err
		}
		dash.Start()
	}

	reporter := output.NewReporter(collector, reportSinks(cfg, dash, stdout)...)

	listener, err := listenMetrics(cfg.MetricsAddr)
	if err != nil {
		if dash != nil {
			dash.Stop()
		}
		return err
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(bgCtx)
	g.Go(func() error {
		return reporter.Run(gctx, cfg.ReportInterval)
	})
	if listener != nil {
		registry := prometheus.NewRegistry()
		if err := registry.Register(metrics.NewPrometheusCollector(collector, runID)); err != nil {
			stopBackground()
			_ = listener.Close()
			if dash != nil {
				dash.Stop()
			}
			return err
		}
		g.Go(func() error {
			return serveMetrics(gctx, listener, registry)
		})
		log.WithField("addr", listener.Addr().String()).Info("serving prometheus metrics")
	}

	collector.Start()
	result := wl.Run(runCtx)

	stopBackground()
	bgErr := g.Wait()
	if dash != nil {
		dash.Stop()
	} else {
		reporter.Flush()
	}
	if bgErr != nil {
		log.WithError(bgErr).Warn("background reporting failed")
	}

	stats := collector.Stats(result.Duration)
	results := threshold.NewEvaluator(thresholds).Evaluate(stats)

	report := output.Report{
		RunID:      runID,
		Workload:   string(cfg.Workload),
		Targets:    targets.Names(),
		Stats:      stats,
		Thresholds: results,
	}
	if cfg.Workload == config.WorkloadKV {
		report.Operation = cfg.Operation
	}
	if err := output.Print(stdout, string(cfg.Output), report); err != nil {
		return err
	}

	if !threshold.AllPassed(results) {
		return ErrThresholdsFailed
	}
	return nil
}

func newWorkload(cfg *config.Config, targets *store.Set, querier store.Querier, recorder runner.Recorder, logger log.FieldLogger) (string, workload, error) {
	if cfg.Workload == config.WorkloadQuery {
		runID := runner.NewRunID()
		q, err := runner.NewQueryWorkload(queryOptions(cfg), querier, recorder, logger.WithField("run_id", runID))
		if err != nil {
			return "", nil, err
		}
		return runID, q, nil
	}

	factory, err := document.NewFactory(cfg.Feeder.Path, cfg.Feeder.Type)
	if err != nil {
		return "", nil, err
	}
	opts, err := runnerOptions(cfg)
	if err != nil {
		return "", nil, err
	}
	r, err := runner.New(opts, targets, factory, recorder, logger)
	if err != nil {
		return "", nil, err
	}
	return r.RunID(), r, nil
}

func runnerOptions(cfg *config.Config) (runner.Options, error) {
	op, err := cfg.ParsedOperation()
	if err != nil {
		return runner.Options{}, err
	}
	return runner.Options{
		Workers:       cfg.Workers,
		BatchSize:     cfg.BatchSize,
		KeyPrefix:     cfg.KeyPrefix,
		Operation:     op,
		NumDocs:       cfg.NumDocs,
		DocSize:       cfg.DocSize,
		RunForTime:    cfg.RunForTime,
		RunTime:       cfg.RunTime,
		OpTimeout:     cfg.OpTimeout,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  cfg.Arrival.Model,
		Seed:          cfg.Seed,
	}, nil
}

// queryOptions bounds a query run by run_time when run_for_time is set or no
// iteration count is given, and by num_docs iterations per worker otherwise.
func queryOptions(cfg *config.Config) runner.QueryOptions {
	opts := runner.QueryOptions{
		Workers:     cfg.Workers,
		Statement:   cfg.Query.Statement,
		ExpectField: cfg.Query.ExpectField,
		OpTimeout:   cfg.OpTimeout,
	}
	if cfg.RunForTime || cfg.NumDocs == 0 {
		opts.RunTime = cfg.RunTime
	} else {
		opts.Iterations = cfg.NumDocs
	}
	return opts
}

func reportSinks(cfg *config.Config, dash *dashboard.Dashboard, stdout io.Writer) []output.Sink {
	switch {
	case dash != nil:
		return []output.Sink{dash}
	case cfg.Output == config.OutputText:
		return []output.Sink{output.NewTextSink(stdout)}
	default:
		return []output.Sink{output.NewLogSink(log.StandardLogger())}
	}
}

func dashboardConfig(cfg *config.Config, runID string, targets *store.Set) dashboard.RunConfig {
	rc := dashboard.RunConfig{
		RunID:      runID,
		Backend:    string(cfg.Backend),
		Workers:    cfg.Workers,
		RunForTime: cfg.RunForTime,
		RunTime:    cfg.RunTime,
		Rate:       cfg.Rate,
		Targets:    targets.Names(),
		ConfigFile: cfg.ConfigFile,
	}
	if cfg.Workload == config.WorkloadQuery {
		rc.Workload = string(cfg.Workload)
		return rc
	}
	rc.Operation = cfg.Operation
	rc.BatchSize = cfg.BatchSize
	rc.NumDocs = cfg.NumDocs
	rc.DocSize = cfg.DocSize
	return rc
}
