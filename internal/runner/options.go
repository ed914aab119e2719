package runner

import (
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize = 1000
	DefaultKeyPrefix = "DOCLOADER-KV-"
)

// Options configure the Runner and the Dispatchers it starts.
type Options struct {
	Workers       int           // parallel dispatchers, each owning one partition of the id range
	BatchSize     int           // work items issued concurrently per batch
	KeyPrefix     string        // prefix prepended to every sequence number
	Operation     Operation     // KV operation issued by every work item
	NumDocs       int           // size of the id range [0, NumDocs)
	DocSize       int           // requested document size in bytes
	RunForTime    bool          // replay the id range until RunTime elapses
	RunTime       time.Duration // overall time limit when RunForTime is set
	OpTimeout     time.Duration // per-operation timeout (0 means none)
	RatePerSecond int           // operations per second per dispatcher (0 means unlimited)
	ArrivalModel  ArrivalModel  // pacing model when RatePerSecond is set
	Seed          int64         // base seed for document generators (0 means random)

	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.NumDocs < 0 {
		o.NumDocs = 0
	}
	if o.DocSize < 0 {
		o.DocSize = 0
	}
	if o.OpTimeout < 0 {
		o.OpTimeout = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
