// Package store defines the storage targets a load run is spread across.
//
// A [Target] is a single addressable destination (a Couchbase collection, a Redis
// namespace, an in-memory table) that accepts the four key-value operations. A [Set]
// is the ordered, immutable list of targets that work items are distributed over by
// round-robin index.
//
// Backends report failures by wrapping one of the sentinel kinds below so callers can
// classify them with errors.Is without depending on a particular client library.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDocumentExists   = errors.New("document exists")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTimeout          = errors.New("timeout")
	ErrTemporaryFailure = errors.New("temporary failure")
	ErrAuthentication   = errors.New("authentication failure")
	ErrUnavailable      = errors.New("service unavailable")
	ErrUnsupported      = errors.New("operation not supported")
)

// Target executes key-value operations against one storage destination.
// Implementations must be safe for concurrent use.
type Target interface {
	Name() string
	Insert(ctx context.Context, key string, doc interface{}) error
	Upsert(ctx context.Context, key string, doc interface{}) error
	Get(ctx context.Context, key string) error
	Remove(ctx context.Context, key string) error
}

// Querier runs a query statement and reports the rows it produced.
type Querier interface {
	Query(ctx context.Context, statement string) ([][]byte, error)
}

// Set is an ordered, fixed list of targets.
type Set struct {
	targets []Target
}

// NewSet builds a Set from the given targets in order.
func NewSet(targets ...Target) (*Set, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("target set requires at least one target")
	}
	for i, t := range targets {
		if t == nil {
			return nil, fmt.Errorf("target %d is nil", i)
		}
	}
	copied := make([]Target, len(targets))
	copy(copied, targets)
	return &Set{targets: copied}, nil
}

// Resolve returns the target for a global work item index.
func (s *Set) Resolve(index int) Target {
	n := len(s.targets)
	i := index % n
	if i < 0 {
		i += n
	}
	return s.targets[i]
}

// Len returns the number of targets.
func (s *Set) Len() int {
	return len(s.targets)
}

// Names lists target names in resolution order.
func (s *Set) Names() []string {
	names := make([]string, len(s.targets))
	for i, t := range s.targets {
		names[i] = t.Name()
	}
	return names
}

// Map returns a new Set whose targets are wrap(t) for every target, preserving order.
func (s *Set) Map(wrap func(Target) Target) *Set {
	mapped := make([]Target, len(s.targets))
	for i, t := range s.targets {
		mapped[i] = wrap(t)
	}
	return &Set{targets: mapped}
}

// Keyspace names a group of collections within one bucket scope.
type Keyspace struct {
	Bucket      string
	Scope       string
	Collections []string
}

// Paths returns "bucket.scope.collection" for every collection in order.
func (k Keyspace) Paths() []string {
	scope := k.Scope
	if scope == "" {
		scope = "_default"
	}
	paths := make([]string, 0, len(k.Collections))
	for _, c := range k.Collections {
		paths = append(paths, k.Bucket+"."+scope+"."+c)
	}
	return paths
}
