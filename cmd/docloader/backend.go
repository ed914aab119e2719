package main

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/torosent/docloader/internal/config"
	"github.com/torosent/docloader/internal/logging"
	"github.com/torosent/docloader/internal/runner"
	"github.com/torosent/docloader/internal/store"
	"github.com/torosent/docloader/internal/store/couchbase"
	"github.com/torosent/docloader/internal/store/memory"
	"github.com/torosent/docloader/internal/store/redisstore"
	"github.com/torosent/docloader/internal/tracing"
)

// backend is a connected store: its targets in configuration order, an optional
// querier and whatever must be closed when the run ends.
type backend struct {
	targets []store.Target
	querier store.Querier
	closer  io.Closer
}

func (b *backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func keyspaces(buckets []config.BucketConfig) []store.Keyspace {
	out := make([]store.Keyspace, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, store.Keyspace{
			Bucket:      b.BucketName,
			Scope:       b.Scope,
			Collections: append([]string(nil), b.Collections...),
		})
	}
	return out
}

func keyspacePaths(buckets []config.BucketConfig) []string {
	var paths []string
	for _, ks := range keyspaces(buckets) {
		paths = append(paths, ks.Paths()...)
	}
	return paths
}

// openBackend connects to the configured store. Connection failures are fatal and
// happen before any batch is dispatched.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		targets := memory.NewTargets(cfg.Memory.Latency, keyspacePaths(cfg.Buckets)...)
		return &backend{targets: targets, querier: memory.NewQuerier(targets...)}, nil

	case config.BackendRedis:
		connectCtx, cancel := withOptionalTimeout(ctx, cfg)
		defer cancel()
		client, err := redisstore.Connect(connectCtx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		paths := keyspacePaths(cfg.Buckets)
		targets := make([]store.Target, 0, len(paths))
		for _, p := range paths {
			targets = append(targets, client.Namespace(p))
		}
		return &backend{targets: targets, closer: client}, nil

	case config.BackendCouchbase:
		cluster, err := couchbase.Connect(ctx, couchbase.Options{
			ConnectionString: cfg.ConnectionString,
			Username:         cfg.Username,
			Password:         cfg.Password,
			Keyspaces:        keyspaces(cfg.Buckets),
			ConnectTimeout:   cfg.ConnectTimeout,
			KVTimeout:        cfg.OpTimeout,
			QueryTimeout:     cfg.OpTimeout,
			WANProfile:       cfg.WANProfile,
			TLSSkipVerify:    cfg.TLSSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		return &backend{targets: cluster.Targets(), querier: cluster, closer: cluster}, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func withOptionalTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.ConnectTimeout > 0 {
		return context.WithTimeout(ctx, cfg.ConnectTimeout)
	}
	return context.WithCancel(ctx)
}

// wrapTargets layers the optional middleware around every target. Logging sits
// innermost so each attempt is logged, retries wrap it, and tracing is outermost so
// one span covers the whole item.
func wrapTargets(targets []store.Target, cfg *config.Config, provider *tracing.Provider, logger log.FieldLogger) []store.Target {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	wrapped := make([]store.Target, len(targets))
	for i, t := range targets {
		if cfg.LogErrors {
			t = runner.WithLogging(t, logging.NewFailureLogger(logger))
		}
		if cfg.Retries > 0 {
			t = runner.WithRetry(t, runner.NewRetryPolicy(cfg.Retries, seed+int64(i)))
		}
		if provider.Enabled() {
			t = tracing.WrapTarget(t, provider.Tracer())
		}
		wrapped[i] = t
	}
	return wrapped
}

func wrapQuerier(querier store.Querier, provider *tracing.Provider) store.Querier {
	if querier == nil || !provider.Enabled() {
		return querier
	}
	return tracing.WrapQuerier(querier, provider.Tracer())
}
