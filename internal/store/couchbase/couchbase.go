// Package couchbase implements store targets backed by Couchbase collections using
// the gocb SDK. One cluster connection is shared by every collection target.
package couchbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"

	"github.com/torosent/docloader/internal/store"
)

// Options configure the cluster connection.
type Options struct {
	ConnectionString string
	Username         string
	Password         string
	Keyspaces        []store.Keyspace
	ConnectTimeout   time.Duration
	KVTimeout        time.Duration
	QueryTimeout     time.Duration
	// WANProfile applies the SDK's wan-development timeouts, matching remote clusters.
	WANProfile    bool
	TLSSkipVerify bool
}

// Cluster is a connected Couchbase cluster with its resolved collections.
type Cluster struct {
	cluster *gocb.Cluster
	targets []store.Target
}

// Connect opens the cluster, waits for it to be ready and resolves every collection
// named by the keyspaces.
func Connect(ctx context.Context, opts Options) (*Cluster, error) {
	clusterOpts := gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		},
		SecurityConfig: gocb.SecurityConfig{
			TLSSkipVerify: opts.TLSSkipVerify,
		},
	}
	if opts.WANProfile {
		if err := clusterOpts.ApplyProfile(gocb.ClusterConfigProfileWanDevelopment); err != nil {
			return nil, fmt.Errorf("apply wan profile: %w", err)
		}
	}
	if opts.KVTimeout > 0 {
		clusterOpts.TimeoutsConfig.KVTimeout = opts.KVTimeout
	}
	if opts.QueryTimeout > 0 {
		clusterOpts.TimeoutsConfig.QueryTimeout = opts.QueryTimeout
	}
	if opts.ConnectTimeout > 0 {
		clusterOpts.TimeoutsConfig.ConnectTimeout = opts.ConnectTimeout
	}

	cluster, err := gocb.Connect(opts.ConnectionString, clusterOpts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.ConnectionString, classify(err))
	}

	wait := opts.ConnectTimeout
	if wait <= 0 {
		wait = 10 * time.Second
	}
	if err := cluster.WaitUntilReady(wait, &gocb.WaitUntilReadyOptions{Context: ctx}); err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("wait for cluster: %w", classify(err))
	}

	c := &Cluster{cluster: cluster}
	for _, ks := range opts.Keyspaces {
		bucket := cluster.Bucket(ks.Bucket)
		if err := bucket.WaitUntilReady(wait, &gocb.WaitUntilReadyOptions{Context: ctx}); err != nil {
			_ = cluster.Close(nil)
			return nil, fmt.Errorf("open bucket %s: %w", ks.Bucket, classify(err))
		}
		scopeName := ks.Scope
		if scopeName == "" {
			scopeName = "_default"
		}
		scope := bucket.Scope(scopeName)
		paths := ks.Paths()
		for i, name := range ks.Collections {
			c.targets = append(c.targets, &collection{
				coll: scope.Collection(name),
				name: paths[i],
			})
		}
	}
	return c, nil
}

// Targets returns one target per configured collection, in configuration order.
func (c *Cluster) Targets() []store.Target {
	return append([]store.Target(nil), c.targets...)
}

// Query runs a N1QL statement and returns every row as raw JSON.
func (c *Cluster) Query(ctx context.Context, statement string) ([][]byte, error) {
	result, err := c.cluster.Query(statement, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("query: %w", classify(err))
	}
	defer result.Close()

	var rows [][]byte
	for result.Next() {
		var row json.RawMessage
		if err := result.Row(&row); err != nil {
			return rows, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return rows, fmt.Errorf("query: %w", classify(err))
	}
	return rows, nil
}

// Close shuts down the cluster connection.
func (c *Cluster) Close() error {
	return c.cluster.Close(nil)
}

type collection struct {
	coll *gocb.Collection
	name string
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Insert(ctx context.Context, key string, doc interface{}) error {
	if _, err := c.coll.Insert(key, doc, &gocb.InsertOptions{Context: ctx}); err != nil {
		return fmt.Errorf("insert %s: %w", key, classify(err))
	}
	return nil
}

func (c *collection) Upsert(ctx context.Context, key string, doc interface{}) error {
	if _, err := c.coll.Upsert(key, doc, &gocb.UpsertOptions{Context: ctx}); err != nil {
		return fmt.Errorf("upsert %s: %w", key, classify(err))
	}
	return nil
}

func (c *collection) Get(ctx context.Context, key string) error {
	if _, err := c.coll.Get(key, &gocb.GetOptions{Context: ctx}); err != nil {
		return fmt.Errorf("get %s: %w", key, classify(err))
	}
	return nil
}

func (c *collection) Remove(ctx context.Context, key string) error {
	if _, err := c.coll.Remove(key, &gocb.RemoveOptions{Context: ctx}); err != nil {
		return fmt.Errorf("remove %s: %w", key, classify(err))
	}
	return nil
}

var errorKinds = []struct {
	sdk  error
	kind error
}{
	{gocb.ErrDocumentExists, store.ErrDocumentExists},
	{gocb.ErrDocumentNotFound, store.ErrDocumentNotFound},
	{gocb.ErrAmbiguousTimeout, store.ErrTimeout},
	{gocb.ErrUnambiguousTimeout, store.ErrTimeout},
	{gocb.ErrTimeout, store.ErrTimeout},
	{gocb.ErrTemporaryFailure, store.ErrTemporaryFailure},
	{gocb.ErrDocumentLocked, store.ErrTemporaryFailure},
	{gocb.ErrAuthenticationFailure, store.ErrAuthentication},
	{gocb.ErrServiceNotAvailable, store.ErrUnavailable},
	{gocb.ErrBucketNotFound, store.ErrUnavailable},
	{gocb.ErrCollectionNotFound, store.ErrUnavailable},
	{gocb.ErrFeatureNotAvailable, store.ErrUnsupported},
}

// classify tags an SDK error with its store kind so callers can use errors.Is
// against either the kind or the original SDK error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.sdk) {
			return &kindError{kind: k.kind, err: err}
		}
	}
	return err
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}
