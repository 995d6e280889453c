package sql

import (
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// GenerationalCache is a ttlcache that refuses writes started before the last DeleteAll, so a query that
// raced with StoreBlock cannot cache a stale result.
type GenerationalCache struct {
	ttlCache   *ttlcache.Cache[string, any]
	generation atomic.Uint64
	stopped    atomic.Bool
}

func NewGenerationalCache() *GenerationalCache {
	gc := &GenerationalCache{
		ttlCache: ttlcache.New[string, any](
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
	}

	go gc.ttlCache.Start()

	return gc
}

// Begin captures the current generation for a get, query, set sequence.
func (gc *GenerationalCache) Begin(key string) *CacheOperation {
	return &CacheOperation{
		generationalCache: gc,
		key:               key,
		generation:        gc.generation.Load(),
	}
}

// DeleteAll clears the cache and invalidates every operation in flight.
func (gc *GenerationalCache) DeleteAll() {
	gc.ttlCache.DeleteAll()
	gc.generation.Add(1)
}

func (gc *GenerationalCache) Stop() {
	if gc.stopped.CompareAndSwap(false, true) {
		gc.ttlCache.Stop()
	}
}

type CacheOperation struct {
	generationalCache *GenerationalCache
	key               string
	generation        uint64
}

func (co *CacheOperation) Get() *ttlcache.Item[string, any] {
	return co.generationalCache.ttlCache.Get(co.key)
}

// Set caches value unless the cache was cleared since Begin. It reports whether the value was stored.
func (co *CacheOperation) Set(value any, ttl time.Duration) bool {
	if co.generation == co.generationalCache.generation.Load() {
		co.generationalCache.ttlCache.Set(co.key, value, ttl)
		return true
	}

	return false
}
