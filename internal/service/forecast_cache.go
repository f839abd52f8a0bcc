package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smartinventory/backend/internal/domain"
)

// CachedForecastSource wraps a ForecastSource and caches good forecasts per city.
// Degraded forecasts are never cached so the next request retries upstream.
type CachedForecastSource struct {
	source         ForecastSource
	cache          map[string]forecastCacheEntry
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	now            func() time.Time
}

type forecastCacheEntry struct {
	Data      domain.Forecast
	Timestamp time.Time
}

// NewCachedForecastSource creates a new cached wrapper around a forecast source
func NewCachedForecastSource(source ForecastSource, cacheDuration time.Duration) *CachedForecastSource {
	return &CachedForecastSource{
		source:        source,
		cache:         make(map[string]forecastCacheEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
	}
}

// Fetch returns a cached forecast when it is fresh, otherwise asks the source
func (c *CachedForecastSource) Fetch(ctx context.Context, city string) domain.Forecast {
	key := domain.Normalize(city)

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.Timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()
		slog.Debug("forecast cache hit", "city", key, "age", c.now().Sub(entry.Timestamp).Round(time.Second))
		return entry.Data
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	forecast := c.source.Fetch(ctx, city)
	if forecast.Degraded() {
		return forecast
	}

	c.mutex.Lock()
	c.cache[key] = forecastCacheEntry{
		Data:      forecast,
		Timestamp: c.now(),
	}
	c.mutex.Unlock()

	return forecast
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedForecastSource) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

var _ ForecastSource = (*CachedForecastSource)(nil)
