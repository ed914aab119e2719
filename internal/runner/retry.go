package runner

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/torosent/docloader/internal/store"
)

const (
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
)

// FailureLogger logs failed operations.
type FailureLogger interface {
	LogFailure(target string, err error)
}

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

// NewRetryPolicy retries transient store failures with capped exponential backoff and jitter.
func NewRetryPolicy(retries int, seed int64) RetryPolicy {
	source := &jitterSource{rnd: rand.New(rand.NewSource(seed))}

	return RetryPolicy{
		MaxAttempts: retries + 1,
		ShouldRetry: IsTransient,
		DelayFunc: func(attempt int, err error) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			backoff := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
			if backoff > maxRetryDelay {
				backoff = maxRetryDelay
			}
			return backoff + source.jitter(backoff/2)
		},
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, store.ErrTimeout) ||
		errors.Is(err, store.ErrTemporaryFailure) ||
		errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}

// retryTarget wraps a Target with retry logic. Each call still returns one error.
type retryTarget struct {
	store.Target
	policy RetryPolicy
}

// WithRetry wraps a Target with retry capability.
func WithRetry(target store.Target, policy RetryPolicy) store.Target {
	if policy.MaxAttempts <= 1 {
		return target // no retries needed
	}
	return &retryTarget{Target: target, policy: policy}
}

func (r *retryTarget) Insert(ctx context.Context, key string, doc interface{}) error {
	return r.do(ctx, func() error { return r.Target.Insert(ctx, key, doc) })
}

func (r *retryTarget) Upsert(ctx context.Context, key string, doc interface{}) error {
	return r.do(ctx, func() error { return r.Target.Upsert(ctx, key, doc) })
}

func (r *retryTarget) Get(ctx context.Context, key string) error {
	return r.do(ctx, func() error { return r.Target.Get(ctx, key) })
}

func (r *retryTarget) Remove(ctx context.Context, key string) error {
	return r.do(ctx, func() error { return r.Target.Remove(ctx, key) })
}

func (r *retryTarget) do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return ctx.Err()
		}

		lastErr = op()
		if lastErr == nil {
			return nil // success
		}

		// Don't delay after the last attempt.
		if attempt < r.policy.MaxAttempts {
			if r.policy.ShouldRetry != nil && !r.policy.ShouldRetry(lastErr) {
				return lastErr
			}
			var delay time.Duration
			if r.policy.DelayFunc != nil {
				delay = r.policy.DelayFunc(attempt, lastErr)
			} else {
				delay = r.policy.Delay
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return lastErr
				}
			}
		}
	}
	return lastErr
}

// loggingTarget wraps a Target with failure logging.
type loggingTarget struct {
	store.Target
	logger FailureLogger
}

// WithLogging wraps a Target to log failures.
func WithLogging(target store.Target, logger FailureLogger) store.Target {
	if logger == nil {
		return target
	}
	return &loggingTarget{Target: target, logger: logger}
}

func (l *loggingTarget) Insert(ctx context.Context, key string, doc interface{}) error {
	return l.log(l.Target.Insert(ctx, key, doc))
}

func (l *loggingTarget) Upsert(ctx context.Context, key string, doc interface{}) error {
	return l.log(l.Target.Upsert(ctx, key, doc))
}

func (l *loggingTarget) Get(ctx context.Context, key string) error {
	return l.log(l.Target.Get(ctx, key))
}

func (l *loggingTarget) Remove(ctx context.Context, key string) error {
	return l.log(l.Target.Remove(ctx, key))
}

func (l *loggingTarget) log(err error) error {
	if err != nil {
		l.logger.LogFailure(l.Name(), err)
	}
	return err
}
