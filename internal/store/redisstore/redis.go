// Package redisstore implements store targets on top of a Redis server. Each target
// is a key namespace; documents are stored as JSON strings.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/torosent/docloader/internal/store"
)

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client owns the Redis connection shared by all namespaces.
type Client struct {
	rdb *redis.Client
}

// Connect dials Redis and verifies the connection with PING.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, classify(err))
	}
	return &Client{rdb: rdb}, nil
}

// Namespace returns a target whose keys are prefixed with name.
func (c *Client) Namespace(name string) store.Target {
	return &namespace{rdb: c.rdb, name: name}
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

type namespace struct {
	rdb  *redis.Client
	name string
}

func (n *namespace) Name() string {
	return n.name
}

func (n *namespace) key(key string) string {
	return n.name + ":" + key
}

func (n *namespace) Insert(ctx context.Context, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ok, err := n.rdb.SetNX(ctx, n.key(key), data, 0).Result()
	if err != nil {
		return fmt.Errorf("insert %s: %w", key, classify(err))
	}
	if !ok {
		return fmt.Errorf("insert %s: %w", key, store.ErrDocumentExists)
	}
	return nil
}

func (n *namespace) Upsert(ctx context.Context, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := n.rdb.Set(ctx, n.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("upsert %s: %w", key, classify(err))
	}
	return nil
}

func (n *namespace) Get(ctx context.Context, key string) error {
	if err := n.rdb.Get(ctx, n.key(key)).Err(); err != nil {
		return fmt.Errorf("get %s: %w", key, classify(err))
	}
	return nil
}

func (n *namespace) Remove(ctx context.Context, key string) error {
	removed, err := n.rdb.Del(ctx, n.key(key)).Result()
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, classify(err))
	}
	if removed == 0 {
		return fmt.Errorf("remove %s: %w", key, store.ErrDocumentNotFound)
	}
	return nil
}

// classify maps go-redis failures onto store error kinds, keeping the original
// error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return store.ErrDocumentNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", store.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOAUTH"), strings.HasPrefix(msg, "WRONGPASS"):
		return fmt.Errorf("%w: %v", store.ErrAuthentication, err)
	case strings.HasPrefix(msg, "LOADING"), strings.HasPrefix(msg, "BUSY"), strings.HasPrefix(msg, "TRYAGAIN"):
		return fmt.Errorf("%w: %v", store.ErrTemporaryFailure, err)
	}
	return err
}
