package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/joseteiadirector/teia-geo/internal/metrics"
	"github.com/joseteiadirector/teia-geo/internal/models"
)

const dayKeyLayout = "2006-01-02"

// Loader is the collaborator the cache reads through to.
type Loader interface {
	LoadSeries(ctx context.Context, brandID string, from, to time.Time) (*models.SeriesBundle, error)
}

// SeriesCacheEntry represents a cached series bundle with metadata
type SeriesCacheEntry struct {
	Bundle   *models.SeriesBundle `json:"bundle"`
	CachedAt time.Time            `json:"cached_at"`
}

// SeriesCacheStats tracks cache performance metrics
type SeriesCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// SeriesCache is a Redis read-through cache in front of a series loader.
// Redis failures never fail a load; they fall back to the loader.
type SeriesCache struct {
	redis   *redis.Client
	loader  Loader
	ttl     time.Duration
	mu      sync.RWMutex
	stats   SeriesCacheStats
	prefix  string
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewSeriesCache creates a new Redis-based series cache. A nil client or a
// non-positive TTL disables caching.
func NewSeriesCache(redisClient *redis.Client, loader Loader, ttl time.Duration, logger *logrus.Logger, m *metrics.Metrics) *SeriesCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &SeriesCache{
		redis:   redisClient,
		loader:  loader,
		ttl:     ttl,
		prefix:  "series_cache:",
		logger:  logger,
		metrics: m,
	}
}

func (c *SeriesCache) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

// Key returns the cache key of a brand and day window.
func (c *SeriesCache) Key(brandID string, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", c.prefix, brandID, from.UTC().Format(dayKeyLayout), to.UTC().Format(dayKeyLayout))
}

// LoadSeries returns the cached bundle for the window or loads and stores it.
func (c *SeriesCache) LoadSeries(ctx context.Context, brandID string, from, to time.Time) (*models.SeriesBundle, error) {
	if !c.enabled() {
		c.metrics.CacheRequest(metrics.CacheBypass)
		return c.loader.LoadSeries(ctx, brandID, from, to)
	}

	key := c.Key(brandID, from, to)
	if bundle, ok := c.get(ctx, key); ok {
		return bundle, nil
	}

	bundle, err := c.loader.LoadSeries(ctx, brandID, from, to)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, bundle)
	return bundle, nil
}

func (c *SeriesCache) get(ctx context.Context, key string) (*models.SeriesBundle, bool) {
	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.recordError(key, "Redis error getting series", err)
		return nil, false
	}

	var entry SeriesCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil || entry.Bundle == nil {
		c.recordError(key, "Error deserializing cached series", err)
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	c.metrics.CacheRequest(metrics.CacheHit)

	return entry.Bundle, true
}

func (c *SeriesCache) set(ctx context.Context, key string, bundle *models.SeriesBundle) {
	data, err := json.Marshal(SeriesCacheEntry{Bundle: bundle, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error serializing series bundle")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error setting series")
		return
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"key":      key,
		"primary":  len(bundle.Primary),
		"mentions": len(bundle.Mentions),
		"seo":      len(bundle.Secondary),
		"ttl":      c.ttl.String(),
	}).Debug("Cached series bundle")
}

func (c *SeriesCache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	c.metrics.CacheRequest(metrics.CacheMiss)
}

func (c *SeriesCache) recordError(key string, msg string, err error) {
	entry := c.logger.WithField("key", key)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)

	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
	c.metrics.CacheRequest(metrics.CacheError)
}

// GetStats returns current cache statistics
func (c *SeriesCache) GetStats() SeriesCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Invalidate removes every cached window of a brand.
func (c *SeriesCache) Invalidate(ctx context.Context, brandID string) (int, error) {
	if c.redis == nil {
		return 0, nil
	}
	pattern := c.prefix + brandID + ":*"

	// Get all keys matching the pattern using SCAN for better performance
	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{"brand_id": brandID, "keys": len(keys)}).Info("Invalidated series cache")
	return len(keys), nil
}
