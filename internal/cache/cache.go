// Package cache is a read-through Redis cache for final answers, keyed by
// the normalized question. Cache failures degrade to a miss and never fail
// the workflow.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "answer_cache_hits_total",
		Help: "Total number of answer cache hits",
	})
	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "answer_cache_misses_total",
		Help: "Total number of answer cache misses",
	})
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, cacheMissesTotal)
}

// Cache wraps the Redis client with answer-specific keys and TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *log.Logger
}

func New(addr string, ttl time.Duration, logger *log.Logger) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
		log: logger.With("component", "cache"),
	}
}

// Get returns the cached answer for the question, if any.
func (c *Cache) Get(ctx context.Context, question string) (string, bool) {
	answer, err := c.rdb.Get(ctx, key(question)).Result()
	if err == redis.Nil {
		cacheMissesTotal.Inc()
		return "", false
	}
	if err != nil {
		c.log.Warn("cache read failed", "err", err)
		cacheMissesTotal.Inc()
		return "", false
	}
	cacheHitsTotal.Inc()
	return answer, true
}

// Set stores the answer under the question's key with the configured TTL.
func (c *Cache) Set(ctx context.Context, question, answer string) {
	if err := c.rdb.Set(ctx, key(question), answer, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "err", err)
	}
}

// Ping verifies the Redis server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func key(question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha1.Sum([]byte(normalized))
	return "answer:" + hex.EncodeToString(sum[:])
}
