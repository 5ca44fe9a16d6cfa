// Package cache memoizes validation results in Redis.
//
// The cache is strictly best-effort: when Redis is unreachable at startup the
// constructor hands back a no-op cache, and any per-operation failure is
// reported as a miss (Get) or silently skipped (Put, Invalidate).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"domain-validator/internal/metrics"
	"domain-validator/internal/model"
)

const (
	// KeyPrefix namespaces every cache key.
	KeyPrefix = "validation:"

	DefaultTTL = time.Hour

	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// Cache stores validation results by normalized domain.
type Cache interface {
	Get(ctx context.Context, domain string) (*model.ValidationResult, bool)
	Put(ctx context.Context, domain string, result model.ValidationResult, ttl time.Duration)
	Invalidate(ctx context.Context, domain string)
	Stats(ctx context.Context) Stats
}

// Stats is a diagnostic snapshot of the cache.
type Stats struct {
	Status           string `json:"status"`
	ConnectedClients int64  `json:"connected_clients,omitempty"`
	UsedMemory       string `json:"used_memory_human,omitempty"`
	TotalCommands    int64  `json:"total_commands_processed,omitempty"`
	KeyspaceHits     int64  `json:"keyspace_hits,omitempty"`
	KeyspaceMisses   int64  `json:"keyspace_misses,omitempty"`
	Hits             int64  `json:"hits"`
	Misses           int64  `json:"misses"`
	Errors           int64  `json:"errors"`
	Error            string `json:"error,omitempty"`
}

// Key returns the storage key for a domain.
func Key(domain string) string {
	return KeyPrefix + strings.ToLower(strings.TrimSpace(domain))
}

// RedisCache is a Cache backed by a go-redis client.
type RedisCache struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	log        logrus.FieldLogger
	metrics    *metrics.Metrics

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithTTL sets the TTL used when Put is called with ttl <= 0.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *RedisCache) { c.log = log }
}

// WithMetrics records cache operations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *RedisCache) { c.metrics = m }
}

// NewRedisCache wraps client without checking connectivity.
func NewRedisCache(client redis.UniversalClient, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:     client,
		defaultTTL: DefaultTTL,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New pings Redis and returns a RedisCache, or a NoopCache when client is nil
// or the ping fails.
func New(ctx context.Context, client redis.UniversalClient, opts ...Option) Cache {
	c := NewRedisCache(client, opts...)
	if client == nil {
		c.log.Warn("Redis not configured, caching disabled")
		return NoopCache{}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		c.log.WithError(err).Warn("Redis unavailable, caching disabled")
		return NoopCache{}
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, domain string) (*model.ValidationResult, bool) {
	raw, err := c.client.Get(ctx, Key(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		c.metrics.IncCacheOp("get", "miss")
		return nil, false
	}
	if err != nil {
		c.fail("get", domain, err)
		return nil, false
	}

	var result model.ValidationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.fail("get", domain, err)
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.IncCacheOp("get", "hit")
	return &result, true
}

func (c *RedisCache) Put(ctx context.Context, domain string, result model.ValidationResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	raw, err := json.Marshal(result)
	if err != nil {
		c.fail("put", domain, err)
		return
	}
	if err := c.client.Set(ctx, Key(domain), raw, ttl).Err(); err != nil {
		c.fail("put", domain, err)
		return
	}
	c.metrics.IncCacheOp("put", "ok")
}

func (c *RedisCache) Invalidate(ctx context.Context, domain string) {
	if err := c.client.Del(ctx, Key(domain)).Err(); err != nil {
		c.fail("invalidate", domain, err)
		return
	}
	c.metrics.IncCacheOp("invalidate", "ok")
}

func (c *RedisCache) fail(op, domain string, err error) {
	c.errors.Add(1)
	c.metrics.IncCacheOp(op, "error")
	c.log.WithError(err).WithFields(logrus.Fields{"op": op, "domain": domain}).Warn("cache operation failed")
}

// Stats reports server-side figures from INFO alongside this process's own
// hit/miss/error counters.
func (c *RedisCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}

	info, err := c.client.Info(ctx).Result()
	if err != nil {
		s.Status = StatusError
		s.Error = err.Error()
		return s
	}
	s.Status = StatusConnected

	fields := parseInfo(info)
	s.ConnectedClients = atoi(fields["connected_clients"])
	s.UsedMemory = fields["used_memory_human"]
	s.TotalCommands = atoi(fields["total_commands_processed"])
	s.KeyspaceHits = atoi(fields["keyspace_hits"])
	s.KeyspaceMisses = atoi(fields["keyspace_misses"])
	return s
}

// NoopCache caches nothing. Used when Redis is absent.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*model.ValidationResult, bool) { return nil, false }
func (NoopCache) Put(context.Context, string, model.ValidationResult, time.Duration) {}
func (NoopCache) Invalidate(context.Context, string)                                 {}
func (NoopCache) Stats(context.Context) Stats {
	return Stats{Status: StatusDisconnected}
}
