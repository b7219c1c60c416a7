// Package cache keeps Hi-Rez API responses in Redis so interrupted
// collection runs can resume without spending daily quota twice, and gives
// the dashboard a short-TTL response cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

const (
	matchIDsKeyFmt   = "hirez:matchids:%d:%s:%s" // queue, date, hour
	matchBatchKeyFmt = "hirez:matchbatch:%s"     // comma-joined ids
	dashboardKeyFmt  = "dash:%s"

	// DashboardTTL is short; the snapshot only changes when the trainer runs.
	DashboardTTL = 30 * time.Second
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_cache_hits_total",
		Help: "Total number of Redis cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_cache_misses_total",
		Help: "Total number of Redis cache misses",
	})
)

// Cache wraps the Redis client with JSON get/set helpers.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New returns a Cache storing API responses with the given default TTL.
func New(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Ping reports whether Redis answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetJSON loads key into out. Misses and Redis errors both report false;
// a dead Redis degrades the pipeline to uncached, not broken.
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		cacheMisses.Inc()
		return false
	}
	if err != nil {
		c.logger.Warnw("Cache read failed", "key", key, "error", err)
		cacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		c.logger.Warnw("Cache entry corrupt, ignoring", "key", key, "error", err)
		cacheMisses.Inc()
		return false
	}
	cacheHits.Inc()
	return true
}

// SetJSON stores v under key for ttl. Zero ttl uses the cache default.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, key, string(b), ttl).Err()
}

// MatchIDs returns a cached getmatchidsbyqueue response.
func (c *Cache) MatchIDs(ctx context.Context, queue int, date, hour string) ([]models.MatchIDEntry, bool) {
	var entries []models.MatchIDEntry
	ok := c.GetJSON(ctx, fmt.Sprintf(matchIDsKeyFmt, queue, date, hour), &entries)
	return entries, ok
}

// StoreMatchIDs caches a getmatchidsbyqueue response.
func (c *Cache) StoreMatchIDs(ctx context.Context, queue int, date, hour string, entries []models.MatchIDEntry) {
	key := fmt.Sprintf(matchIDsKeyFmt, queue, date, hour)
	if err := c.SetJSON(ctx, key, entries, 0); err != nil {
		c.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
}

// MatchBatch returns a cached getmatchdetailsbatch response for the exact
// ID list.
func (c *Cache) MatchBatch(ctx context.Context, idsKey string) ([]models.MatchPlayer, bool) {
	var players []models.MatchPlayer
	ok := c.GetJSON(ctx, fmt.Sprintf(matchBatchKeyFmt, idsKey), &players)
	return players, ok
}

// StoreMatchBatch caches a getmatchdetailsbatch response.
func (c *Cache) StoreMatchBatch(ctx context.Context, idsKey string, players []models.MatchPlayer) {
	key := fmt.Sprintf(matchBatchKeyFmt, idsKey)
	if err := c.SetJSON(ctx, key, players, 0); err != nil {
		c.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
}

// Dashboard returns a cached dashboard response body.
func (c *Cache) Dashboard(ctx context.Context, name string) ([]byte, bool) {
	val, err := c.client.Get(ctx, fmt.Sprintf(dashboardKeyFmt, name)).Result()
	if err == redis.Nil {
		cacheMisses.Inc()
		return nil, false
	}
	if err != nil {
		c.logger.Warnw("Cache read failed", "key", name, "error", err)
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return []byte(val), true
}

// StoreDashboard caches a rendered dashboard response body.
func (c *Cache) StoreDashboard(ctx context.Context, name string, body []byte) {
	key := fmt.Sprintf(dashboardKeyFmt, name)
	if err := c.client.Set(ctx, key, body, DashboardTTL).Err(); err != nil {
		c.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
}
