package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds the last loaded settings with the time they were loaded.
// Get reloads once the value is older than the TTL; Invalidate forces the next
// Get to reload. A TTL <= 0 never expires on its own.
type Cache struct {
	loader Loader
	ttl    time.Duration
	nowFn  func() time.Time

	mu       sync.RWMutex
	value    *Settings
	loadedAt time.Time
	stale    bool

	loadGroup singleflight.Group // Dedupe concurrent reloads
}

// NewCache creates an empty cache. Nothing is loaded until the first Get.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader: loader,
		ttl:    ttl,
		nowFn:  time.Now,
	}
}

// Get returns the cached settings, reloading them when stale.
// When a reload fails and a previous value exists, the previous value is kept
// and served until the next TTL expiry.
func (c *Cache) Get(ctx context.Context) (Settings, error) {
	c.mu.RLock()
	if c.value != nil && !c.expiredLocked() {
		s := *c.value
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.loadGroup.Do("settings", func() (interface{}, error) {
		// Double-check after acquiring singleflight slot
		c.mu.RLock()
		if c.value != nil && !c.expiredLocked() {
			s := *c.value
			c.mu.RUnlock()
			return s, nil
		}
		c.mu.RUnlock()

		loaded, err := c.loader.Load(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err != nil {
			if c.value == nil {
				return nil, err
			}
			slog.Warn("[Settings] Reload failed, serving previous settings", "error", err)
			c.loadedAt = c.nowFn()
			c.stale = false
			return *c.value, nil
		}

		c.value = &loaded
		c.loadedAt = c.nowFn()
		c.stale = false
		return loaded, nil
	})
	if err != nil {
		return Settings{}, err
	}

	return result.(Settings), nil
}

// Invalidate marks the cached value stale. It is kept as a fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
	slog.Info("[Settings] Cache invalidated")
}

// LoadedAt returns when the current value was loaded, zero if never.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func (c *Cache) expiredLocked() bool {
	if c.stale {
		return true
	}
	if c.ttl <= 0 {
		return false
	}
	return c.nowFn().Sub(c.loadedAt) >= c.ttl
}
