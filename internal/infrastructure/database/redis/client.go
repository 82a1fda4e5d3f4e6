// Package redis holds the go-redis client wrapper and the redis-backed
// session repository, snapshot store and session lock.
package redis

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeDatabaseError, "redis connection failed")
)

const connectTimeout = 5 * time.Second

// RedisConfig mirrors the redis section of the service configuration. Zero
// values fall back to the defaults in withDefaults.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.PoolSize == 0 {
		c.PoolSize = 10 * runtime.GOMAXPROCS(0)
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	return c
}

// Client is the shared connection used by the session repository, the
// snapshot store and the session lock. Commands issued after Close fail with
// ErrClientClosed instead of reaching go-redis.
type Client struct {
	rdb    redis.UniversalClient
	config RedisConfig
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects and pings; an unreachable server is an error.
func NewClient(ctx context.Context, cfg RedisConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err).WithDetail(cfg.Addr)
	}

	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, config: cfg, logger: log}, nil
}

// NewClientFromUniversal wraps an existing go-redis client without pinging.
func NewClientFromUniversal(rdb redis.UniversalClient, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: log}
}

// Universal returns the go-redis client for scripts and pipelines.
func (c *Client) Universal() redis.UniversalClient {
	return c.rdb
}

func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("failed to close redis client", logging.Err(err))
		return err
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// cmd runs fn unless the client is closed, in which case it returns a command
// built by empty that already carries ErrClientClosed.
func cmd[C interface{ SetErr(error) }](c *Client, empty func() C, fn func(redis.UniversalClient) C) C {
	if c.isClosed() {
		out := empty()
		out.SetErr(ErrClientClosed)
		return out
	}
	return fn(c.rdb)
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return cmd(c, func() *redis.StringCmd { return redis.NewStringCmd(ctx) },
		func(r redis.UniversalClient) *redis.StringCmd { return r.Get(ctx, key) })
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	return cmd(c, func() *redis.StatusCmd { return redis.NewStatusCmd(ctx) },
		func(r redis.UniversalClient) *redis.StatusCmd { return r.Set(ctx, key, value, ttl) })
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	return cmd(c, func() *redis.BoolCmd { return redis.NewBoolCmd(ctx) },
		func(r redis.UniversalClient) *redis.BoolCmd { return r.SetNX(ctx, key, value, ttl) })
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return cmd(c, func() *redis.IntCmd { return redis.NewIntCmd(ctx) },
		func(r redis.UniversalClient) *redis.IntCmd { return r.Del(ctx, keys...) })
}

func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	return cmd(c, func() *redis.IntCmd { return redis.NewIntCmd(ctx) },
		func(r redis.UniversalClient) *redis.IntCmd { return r.Exists(ctx, keys...) })
}

func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	return cmd(c, func() *redis.DurationCmd { return redis.NewDurationCmd(ctx, time.Second) },
		func(r redis.UniversalClient) *redis.DurationCmd { return r.TTL(ctx, key) })
}
